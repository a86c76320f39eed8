package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"baby-name-game/internal/realtime"

	"github.com/google/uuid"
)

// RecordedEvent is an audit entry kept by the in-memory backend.
type RecordedEvent struct {
	GameID    uuid.UUID
	PlayerID  *uuid.UUID
	Type      string
	Payload   EventPayload
	CreatedAt time.Time
}

// Memory is a Service held entirely in process memory.
type Memory struct {
	mu       sync.Mutex
	broker   *realtime.Broker
	now      func() time.Time
	newCode  func() string
	games    map[uuid.UUID]*GameWithClues
	codes    map[string]uuid.UUID
	players  map[uuid.UUID]*Player
	guesses  map[uuid.UUID][]Guess
	accounts map[uuid.UUID]*Account
	parents  map[uuid.UUID]*Parent
	events   []RecordedEvent
}

func NewMemory(broker *realtime.Broker) *Memory {
	if broker == nil {
		broker = realtime.NewBroker()
	}
	return &Memory{
		broker:   broker,
		now:      func() time.Time { return time.Now().UTC() },
		newCode:  newGameCode,
		games:    make(map[uuid.UUID]*GameWithClues),
		codes:    make(map[string]uuid.UUID),
		players:  make(map[uuid.UUID]*Player),
		guesses:  make(map[uuid.UUID][]Guess),
		accounts: make(map[uuid.UUID]*Account),
		parents:  make(map[uuid.UUID]*Parent),
	}
}

// SetClock replaces the time source used for timestamps.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) CreateGame(ctx context.Context, input CreateGameInput) (*Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := ""
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		candidate := m.newCode()
		if _, taken := m.codes[candidate]; !taken {
			code = candidate
			break
		}
	}
	if code == "" {
		return nil, fmt.Errorf("create game: could not allocate a unique code")
	}
	maxClues := input.MaxCluesPerPlayer
	if maxClues <= 0 {
		maxClues = DefaultMaxClues
	}
	now := m.now()
	game := &GameWithClues{Game: Game{
		ID:                      uuid.New(),
		ParentID:                input.ParentID,
		Code:                    code,
		Status:                  StatusDraft,
		Title:                   strings.TrimSpace(input.Title),
		Description:             trimmedPtr(input.Description),
		BabyFirstName:           strings.TrimSpace(input.BabyFirstName),
		BabyMiddleName:          trimmedPtr(input.BabyMiddleName),
		BabyLastName:            trimmedPtr(input.BabyLastName),
		StartDate:               dayStart(input.StartDate),
		EndDate:                 dayStart(input.EndDate),
		MaxCluesPerPlayer:       maxClues,
		AllowMultipleGuesses:    input.AllowMultipleGuesses,
		ShowOtherPlayersGuesses: input.ShowOtherPlayersGuesses,
		CreatedAt:               now,
		UpdatedAt:               now,
	}}
	for i, text := range cleanClues(input.Clues) {
		game.Clues = append(game.Clues, Clue{
			ID:     uuid.New(),
			GameID: game.ID,
			Text:   text,
			Order:  i + 1,
		})
	}
	m.games[game.ID] = game
	m.codes[code] = game.ID
	m.recordLocked(game.ID, nil, "game_created", EventPayload{GameCode: code, ClueCount: len(game.Clues)})
	out := game.Game
	return &out, nil
}

func (m *Memory) UpdateGameStatus(ctx context.Context, gameID uuid.UUID, status string) (*Game, error) {
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	game, ok := m.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	game.Status = status
	game.UpdatedAt = m.now()
	m.recordLocked(game.ID, nil, "game_status_changed", EventPayload{GameCode: game.Code, Status: status})
	out := game.Game
	return &out, nil
}

func (m *Memory) GetGameByCode(ctx context.Context, code string) (*GameWithClues, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.codes[NormalizeCode(code)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyGame(m.games[id]), nil
}

func (m *Memory) GetGameByID(ctx context.Context, id uuid.UUID) (*GameWithClues, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	game, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyGame(game), nil
}

func (m *Memory) ExpireGames(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, game := range m.games {
		if game.Status == StatusActive && HasEnded(&game.Game, now) {
			game.Status = StatusExpired
			game.UpdatedAt = m.now()
			m.recordLocked(game.ID, nil, "game_status_changed", EventPayload{GameCode: game.Code, Status: StatusExpired})
			count++
		}
	}
	return count, nil
}

func (m *Memory) JoinGame(ctx context.Context, gameID uuid.UUID, name string, email, userAgent *string) (*Player, error) {
	name = NormalizeName(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[gameID]; !ok {
		return nil, ErrNotFound
	}
	for _, existing := range m.players {
		if existing.GameID == gameID && existing.Name == name {
			return nil, ErrDuplicateName
		}
	}
	now := m.now()
	player := &Player{
		ID:         uuid.New(),
		GameID:     gameID,
		Name:       name,
		Email:      trimmedPtr(email),
		UserAgent:  userAgent,
		JoinedAt:   now,
		LastActive: now,
	}
	m.players[player.ID] = player
	id := player.ID
	m.recordLocked(gameID, &id, "player_joined", EventPayload{PlayerName: name})
	m.publishLocked(realtime.TablePlayers, realtime.OpInsert, gameID, player.ID, player)
	out := *player
	return &out, nil
}

func (m *Memory) GetPlayer(ctx context.Context, gameID uuid.UUID, name string) (*Player, error) {
	name = NormalizeName(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, player := range m.players {
		if player.GameID == gameID && player.Name == name {
			out := *player
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetPlayerByID(ctx context.Context, id uuid.UUID) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, ok := m.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *player
	return &out, nil
}

func (m *Memory) TouchPlayer(ctx context.Context, playerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, ok := m.players[playerID]
	if !ok {
		return ErrNotFound
	}
	player.LastActive = m.now()
	m.publishLocked(realtime.TablePlayers, realtime.OpUpdate, player.GameID, player.ID, player)
	return nil
}

func (m *Memory) RevealClue(ctx context.Context, playerID uuid.UUID, limit int) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, ok := m.players[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	if player.CluesRevealed >= limit {
		return nil, ErrNoMoreClues
	}
	player.CluesRevealed++
	player.LastActive = m.now()
	id := player.ID
	m.recordLocked(player.GameID, &id, "clue_revealed", EventPayload{PlayerName: player.Name, CluesRevealed: player.CluesRevealed})
	m.publishLocked(realtime.TablePlayers, realtime.OpUpdate, player.GameID, player.ID, player)
	out := *player
	return &out, nil
}

func (m *Memory) SubmitGuess(ctx context.Context, input SubmitGuessInput) (*Guess, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, ok := m.players[input.PlayerID]
	if !ok {
		return nil, ErrNotFound
	}
	now := m.now()
	guess := Guess{
		ID:                 uuid.New(),
		PlayerID:           input.PlayerID,
		GameID:             input.GameID,
		Text:               strings.TrimSpace(input.Text),
		Status:             GuessIncorrect,
		TimeElapsedSeconds: input.TimeElapsedSeconds,
		CluesUsed:          input.CluesUsed,
		GuessedAt:          now,
	}
	if input.Correct {
		guess.Status = GuessCorrect
		player.HasWon = true
		wonAt := now
		player.WonAt = &wonAt
		final := input.TimeElapsedSeconds
		player.FinalTimeSeconds = &final
	}
	player.LastActive = now
	m.guesses[player.ID] = append(m.guesses[player.ID], guess)
	id := player.ID
	m.recordLocked(input.GameID, &id, "guess_submitted", EventPayload{PlayerName: player.Name, Guess: guess.Text, Status: guess.Status})
	m.publishLocked(realtime.TablePlayerGuesses, realtime.OpInsert, input.GameID, player.ID, guess)
	m.publishLocked(realtime.TablePlayers, realtime.OpUpdate, player.GameID, player.ID, player)
	return &guess, nil
}

func (m *Memory) ListPlayerGuesses(ctx context.Context, playerID uuid.UUID) ([]Guess, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.guesses[playerID]
	list := make([]Guess, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		list = append(list, stored[i])
	}
	return list, nil
}

func (m *Memory) Leaderboard(ctx context.Context, gameID uuid.UUID) ([]LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[gameID]; !ok {
		return nil, ErrNotFound
	}
	entries := make([]LeaderboardEntry, 0)
	for _, player := range m.players {
		if player.GameID != gameID {
			continue
		}
		entry := LeaderboardEntry{
			GameID:           gameID,
			PlayerID:         player.ID,
			PlayerName:       player.Name,
			HasWon:           player.HasWon,
			WonAt:            player.WonAt,
			FinalTimeSeconds: player.FinalTimeSeconds,
			CluesRevealed:    player.CluesRevealed,
		}
		for _, guess := range m.guesses[player.ID] {
			entry.TotalGuesses++
			if guess.Status == GuessIncorrect {
				entry.IncorrectGuesses++
			}
		}
		entries = append(entries, entry)
	}
	return RankLeaderboard(entries), nil
}

func (m *Memory) ListParentGames(ctx context.Context, parentID uuid.UUID) ([]GameSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]GameSummary, 0)
	for _, game := range m.games {
		if game.ParentID != parentID {
			continue
		}
		summary := GameSummary{
			ID:             game.ID,
			ParentID:       game.ParentID,
			Title:          game.Title,
			Code:           game.Code,
			Status:         game.Status,
			StartDate:      game.StartDate,
			EndDate:        game.EndDate,
			BabyFirstName:  game.BabyFirstName,
			BabyMiddleName: game.BabyMiddleName,
			BabyLastName:   game.BabyLastName,
			CreatedAt:      game.CreatedAt,
		}
		for _, player := range m.players {
			if player.GameID != game.ID {
				continue
			}
			summary.TotalPlayers++
			if player.HasWon {
				summary.WinnersCount++
			}
			summary.TotalGuesses += len(m.guesses[player.ID])
		}
		list = append(list, summary)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID.String() < list[j].ID.String()
	})
	return list, nil
}

func (m *Memory) ListParentGamesPage(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]GameSummary, int64, error) {
	list, err := m.ListParentGames(ctx, parentID)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(list))
	offset = max(offset, 0)
	if limit <= 0 || offset >= len(list) {
		return []GameSummary{}, total, nil
	}
	return list[offset:min(offset+limit, len(list))], total, nil
}

func (m *Memory) CreateAccount(ctx context.Context, input CreateAccountInput) (*Account, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Email == email {
			return nil, ErrEmailTaken
		}
	}
	account := &Account{
		ID:            uuid.New(),
		Email:         email,
		PasswordHash:  input.PasswordHash,
		OAuthProvider: input.OAuthProvider,
		OAuthSubject:  input.OAuthSubject,
		Metadata:      input.Metadata,
		CreatedAt:     m.now(),
	}
	m.accounts[account.ID] = account
	out := *account
	return &out, nil
}

func (m *Memory) FindAccountByEmail(ctx context.Context, email string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.Email == email {
			out := *account
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindAccountByOAuth(ctx context.Context, provider, subject string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.OAuthProvider != nil && account.OAuthSubject != nil &&
			*account.OAuthProvider == provider && *account.OAuthSubject == subject {
			out := *account
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *account
	return &out, nil
}

func (m *Memory) GetParent(ctx context.Context, id uuid.UUID) (*Parent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	parent, ok := m.parents[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *parent
	return &out, nil
}

func (m *Memory) UpsertParent(ctx context.Context, id uuid.UUID, profile ParentProfile) (*Parent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if parent, ok := m.parents[id]; ok {
		out := *parent
		return &out, nil
	}
	now := m.now()
	parent := &Parent{
		ID:        id,
		Username:  profile.Username,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.parents[id] = parent
	out := *parent
	return &out, nil
}

func (m *Memory) UpdateParent(ctx context.Context, id uuid.UUID, profile ParentProfile) (*Parent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	parent, ok := m.parents[id]
	if !ok {
		return nil, ErrNotFound
	}
	if profile.Username != "" {
		parent.Username = profile.Username
	}
	parent.FirstName = profile.FirstName
	parent.LastName = profile.LastName
	parent.UpdatedAt = m.now()
	out := *parent
	return &out, nil
}

func (m *Memory) SubscribeGame(gameID uuid.UUID) *realtime.Subscription {
	return m.broker.Subscribe(realtime.GameTopic(gameID))
}

func (m *Memory) SubscribePlayer(playerID uuid.UUID) *realtime.Subscription {
	return m.broker.Subscribe(realtime.PlayerTopic(playerID))
}

// Events returns the audit entries recorded for a game, oldest first.
func (m *Memory) Events(gameID uuid.UUID) []RecordedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []RecordedEvent
	for _, event := range m.events {
		if event.GameID == gameID {
			list = append(list, event)
		}
	}
	return list
}

func (m *Memory) recordLocked(gameID uuid.UUID, playerID *uuid.UUID, eventType string, payload EventPayload) {
	m.events = append(m.events, RecordedEvent{
		GameID:    gameID,
		PlayerID:  playerID,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: m.now(),
	})
}

func (m *Memory) publishLocked(table, op string, gameID, playerID uuid.UUID, record any) {
	data, err := json.Marshal(record)
	if err != nil {
		return
	}
	m.broker.Publish(realtime.Change{
		Table:    table,
		Op:       op,
		GameID:   gameID,
		PlayerID: playerID,
		Record:   data,
	})
}

func copyGame(game *GameWithClues) *GameWithClues {
	out := &GameWithClues{Game: game.Game}
	out.Clues = append([]Clue(nil), game.Clues...)
	sort.Slice(out.Clues, func(i, j int) bool {
		return out.Clues[i].Order < out.Clues[j].Order
	})
	return out
}
