package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"baby-name-game/internal/db"
	"baby-name-game/internal/realtime"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres is a Service backed by gorm. When publishLocal is set, changes are
// pushed into the broker directly instead of arriving through LISTEN/NOTIFY.
type Postgres struct {
	db           *gorm.DB
	broker       *realtime.Broker
	publishLocal bool
	now          func() time.Time
}

func NewPostgres(conn *gorm.DB, broker *realtime.Broker, publishLocal bool) *Postgres {
	if broker == nil {
		broker = realtime.NewBroker()
	}
	return &Postgres{
		db:           conn,
		broker:       broker,
		publishLocal: publishLocal,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (p *Postgres) CreateGame(ctx context.Context, input CreateGameInput) (*Game, error) {
	maxClues := input.MaxCluesPerPlayer
	if maxClues <= 0 {
		maxClues = DefaultMaxClues
	}
	clues := cleanClues(input.Clues)
	var record db.Game
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		now := p.now()
		record = db.Game{
			ID:                      uuid.New(),
			ParentID:                input.ParentID,
			GameCode:                newGameCode(),
			Title:                   strings.TrimSpace(input.Title),
			Description:             trimmedPtr(input.Description),
			BabyFirstName:           strings.TrimSpace(input.BabyFirstName),
			BabyMiddleName:          trimmedPtr(input.BabyMiddleName),
			BabyLastName:            trimmedPtr(input.BabyLastName),
			StartDate:               dayStart(input.StartDate),
			EndDate:                 dayStart(input.EndDate),
			Status:                  StatusDraft,
			MaxCluesPerPlayer:       maxClues,
			AllowMultipleGuesses:    input.AllowMultipleGuesses,
			ShowOtherPlayersGuesses: input.ShowOtherPlayersGuesses,
			CreatedAt:               now,
			UpdatedAt:               now,
		}
		err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit(clause.Associations).Create(&record).Error; err != nil {
				return err
			}
			if len(clues) == 0 {
				return nil
			}
			rows := make([]db.GameClue, 0, len(clues))
			for i, text := range clues {
				rows = append(rows, db.GameClue{
					ID:        uuid.New(),
					GameID:    record.ID,
					ClueText:  text,
					ClueOrder: i + 1,
					CreatedAt: now,
				})
			}
			return tx.Create(&rows).Error
		})
		if err == nil {
			p.recordEvent(ctx, record.ID, nil, "game_created", EventPayload{GameCode: record.GameCode, ClueCount: len(clues)})
			game := gameFromRecord(record)
			return &game, nil
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("create game: %w", err)
		}
		log.Printf("game code collision code=%s attempt=%d", record.GameCode, attempt+1)
	}
	return nil, errors.New("create game: could not allocate a unique code")
}

func (p *Postgres) UpdateGameStatus(ctx context.Context, gameID uuid.UUID, status string) (*Game, error) {
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}
	result := p.db.WithContext(ctx).Model(&db.Game{}).
		Where("id = ?", gameID).
		Updates(map[string]any{"status": status, "updated_at": p.now()})
	if result.Error != nil {
		return nil, fmt.Errorf("update game status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	var record db.Game
	if err := p.db.WithContext(ctx).First(&record, "id = ?", gameID).Error; err != nil {
		return nil, wrapLookup("load game", err)
	}
	p.recordEvent(ctx, gameID, nil, "game_status_changed", EventPayload{GameCode: record.GameCode, Status: status})
	game := gameFromRecord(record)
	return &game, nil
}

func (p *Postgres) GetGameByCode(ctx context.Context, code string) (*GameWithClues, error) {
	return p.loadGame(ctx, "game_code = ?", NormalizeCode(code))
}

func (p *Postgres) GetGameByID(ctx context.Context, id uuid.UUID) (*GameWithClues, error) {
	return p.loadGame(ctx, "id = ?", id)
}

func (p *Postgres) loadGame(ctx context.Context, query string, arg any) (*GameWithClues, error) {
	var record db.Game
	err := p.db.WithContext(ctx).
		Preload("Clues", func(tx *gorm.DB) *gorm.DB { return tx.Order("clue_order ASC") }).
		Where(query, arg).
		First(&record).Error
	if err != nil {
		return nil, wrapLookup("load game", err)
	}
	out := &GameWithClues{Game: gameFromRecord(record)}
	for _, clue := range record.Clues {
		out.Clues = append(out.Clues, Clue{ID: clue.ID, GameID: clue.GameID, Text: clue.ClueText, Order: clue.ClueOrder})
	}
	return out, nil
}

func (p *Postgres) ExpireGames(ctx context.Context, now time.Time) (int, error) {
	var changed int
	if err := p.db.WithContext(ctx).Raw("SELECT update_game_statuses(?)", now.UTC()).Scan(&changed).Error; err != nil {
		return 0, fmt.Errorf("expire games: %w", err)
	}
	return changed, nil
}

func (p *Postgres) JoinGame(ctx context.Context, gameID uuid.UUID, name string, email, userAgent *string) (*Player, error) {
	now := p.now()
	record := db.Player{
		ID:         uuid.New(),
		GameID:     gameID,
		Name:       NormalizeName(name),
		Email:      trimmedPtr(email),
		UserAgent:  userAgent,
		JoinedAt:   now,
		LastActive: now,
	}
	if err := p.db.WithContext(ctx).Omit(clause.Associations).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		if isForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("join game: %w", err)
	}
	player := playerFromRecord(record)
	p.recordEvent(ctx, gameID, &record.ID, "player_joined", EventPayload{PlayerName: record.Name})
	p.publish(realtime.TablePlayers, realtime.OpInsert, gameID, player.ID, player)
	return &player, nil
}

func (p *Postgres) GetPlayer(ctx context.Context, gameID uuid.UUID, name string) (*Player, error) {
	var record db.Player
	err := p.db.WithContext(ctx).
		Where("game_id = ? AND name = ?", gameID, NormalizeName(name)).
		First(&record).Error
	if err != nil {
		return nil, wrapLookup("load player", err)
	}
	player := playerFromRecord(record)
	return &player, nil
}

func (p *Postgres) GetPlayerByID(ctx context.Context, id uuid.UUID) (*Player, error) {
	var record db.Player
	if err := p.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, wrapLookup("load player", err)
	}
	player := playerFromRecord(record)
	return &player, nil
}

func (p *Postgres) TouchPlayer(ctx context.Context, playerID uuid.UUID) error {
	result := p.db.WithContext(ctx).Model(&db.Player{}).
		Where("id = ?", playerID).
		Update("last_active", p.now())
	if result.Error != nil {
		return fmt.Errorf("touch player: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) RevealClue(ctx context.Context, playerID uuid.UUID, limit int) (*Player, error) {
	var record db.Player
	result := p.db.WithContext(ctx).Model(&record).
		Clauses(clause.Returning{}).
		Where("id = ? AND clues_revealed < ?", playerID, limit).
		Updates(map[string]any{
			"clues_revealed": gorm.Expr("clues_revealed + 1"),
			"last_active":    p.now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("reveal clue: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := p.GetPlayerByID(ctx, playerID); err != nil {
			return nil, err
		}
		return nil, ErrNoMoreClues
	}
	player := playerFromRecord(record)
	p.recordEvent(ctx, player.GameID, &player.ID, "clue_revealed", EventPayload{PlayerName: player.Name, CluesRevealed: player.CluesRevealed})
	p.publish(realtime.TablePlayers, realtime.OpUpdate, player.GameID, player.ID, player)
	return &player, nil
}

func (p *Postgres) SubmitGuess(ctx context.Context, input SubmitGuessInput) (*Guess, error) {
	now := p.now()
	record := db.PlayerGuess{
		ID:                   uuid.New(),
		PlayerID:             input.PlayerID,
		GameID:               input.GameID,
		GuessText:            strings.TrimSpace(input.Text),
		Status:               GuessIncorrect,
		GuessedAt:            now,
		TimeElapsedSeconds:   input.TimeElapsedSeconds,
		CluesUsedWhenGuessed: input.CluesUsed,
	}
	if input.Correct {
		record.Status = GuessCorrect
	}
	var player db.Player
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		updates := map[string]any{"last_active": now}
		if input.Correct {
			updates["has_won"] = true
			updates["won_at"] = now
			updates["final_time_seconds"] = input.TimeElapsedSeconds
		}
		result := tx.Model(&player).Clauses(clause.Returning{}).
			Where("id = ?", input.PlayerID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || isForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("submit guess: %w", err)
	}
	guess := guessFromRecord(record)
	p.recordEvent(ctx, input.GameID, &input.PlayerID, "guess_submitted", EventPayload{PlayerName: player.Name, Guess: guess.Text, Status: guess.Status})
	p.publish(realtime.TablePlayerGuesses, realtime.OpInsert, input.GameID, input.PlayerID, guess)
	p.publish(realtime.TablePlayers, realtime.OpUpdate, input.GameID, input.PlayerID, playerFromRecord(player))
	return &guess, nil
}

func (p *Postgres) ListPlayerGuesses(ctx context.Context, playerID uuid.UUID) ([]Guess, error) {
	var records []db.PlayerGuess
	err := p.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("guessed_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list guesses: %w", err)
	}
	list := make([]Guess, 0, len(records))
	for _, record := range records {
		list = append(list, guessFromRecord(record))
	}
	return list, nil
}

func (p *Postgres) Leaderboard(ctx context.Context, gameID uuid.UUID) ([]LeaderboardEntry, error) {
	var rows []db.LeaderboardRow
	err := p.db.WithContext(ctx).
		Raw("SELECT * FROM game_leaderboard WHERE game_id = ?", gameID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	entries := make([]LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, LeaderboardEntry{
			GameID:           row.GameID,
			PlayerID:         row.PlayerID,
			PlayerName:       row.PlayerName,
			HasWon:           row.HasWon,
			WonAt:            row.WonAt,
			FinalTimeSeconds: row.FinalTimeSeconds,
			CluesRevealed:    row.CluesRevealed,
			TotalGuesses:     row.TotalGuesses,
			IncorrectGuesses: row.IncorrectGuesses,
			Rank:             row.Rank,
		})
	}
	return RankLeaderboard(entries), nil
}

func (p *Postgres) ListParentGames(ctx context.Context, parentID uuid.UUID) ([]GameSummary, error) {
	var rows []db.GameSummaryRow
	err := p.db.WithContext(ctx).
		Raw("SELECT * FROM parent_games_summary WHERE parent_id = ? ORDER BY created_at DESC, id", parentID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list parent games: %w", err)
	}
	return summariesFromRows(rows), nil
}

func (p *Postgres) ListParentGamesPage(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]GameSummary, int64, error) {
	var total int64
	if err := p.db.WithContext(ctx).Model(&db.Game{}).Where("parent_id = ?", parentID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count parent games: %w", err)
	}
	if total == 0 || limit <= 0 {
		return []GameSummary{}, total, nil
	}
	var rows []db.GameSummaryRow
	err := p.db.WithContext(ctx).
		Raw("SELECT * FROM parent_games_summary WHERE parent_id = ? ORDER BY created_at DESC, id LIMIT ? OFFSET ?", parentID, limit, max(offset, 0)).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list parent games: %w", err)
	}
	return summariesFromRows(rows), total, nil
}

func summariesFromRows(rows []db.GameSummaryRow) []GameSummary {
	list := make([]GameSummary, 0, len(rows))
	for _, row := range rows {
		list = append(list, GameSummary{
			ID:             row.ID,
			ParentID:       row.ParentID,
			Title:          row.Title,
			Code:           row.GameCode,
			Status:         row.Status,
			StartDate:      row.StartDate,
			EndDate:        row.EndDate,
			BabyFirstName:  row.BabyFirstName,
			BabyMiddleName: row.BabyMiddleName,
			BabyLastName:   row.BabyLastName,
			TotalPlayers:   row.TotalPlayers,
			WinnersCount:   row.WinnersCount,
			TotalGuesses:   row.TotalGuesses,
			CreatedAt:      row.CreatedAt,
		})
	}
	return list
}

func (p *Postgres) CreateAccount(ctx context.Context, input CreateAccountInput) (*Account, error) {
	metadata, err := json.Marshal(input.Metadata)
	if err != nil {
		return nil, err
	}
	now := p.now()
	record := db.Account{
		ID:            uuid.New(),
		Email:         strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash:  input.PasswordHash,
		OAuthProvider: input.OAuthProvider,
		OAuthSubject:  input.OAuthSubject,
		Metadata:      datatypes.JSON(metadata),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := p.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return accountFromRecord(record), nil
}

func (p *Postgres) FindAccountByEmail(ctx context.Context, email string) (*Account, error) {
	return p.findAccount(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (p *Postgres) FindAccountByOAuth(ctx context.Context, provider, subject string) (*Account, error) {
	return p.findAccount(ctx, "oauth_provider = ? AND oauth_subject = ?", provider, subject)
}

func (p *Postgres) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	return p.findAccount(ctx, "id = ?", id)
}

func (p *Postgres) findAccount(ctx context.Context, query string, args ...any) (*Account, error) {
	var record db.Account
	if err := p.db.WithContext(ctx).Where(query, args...).First(&record).Error; err != nil {
		return nil, wrapLookup("load account", err)
	}
	return accountFromRecord(record), nil
}

func (p *Postgres) GetParent(ctx context.Context, id uuid.UUID) (*Parent, error) {
	var record db.Parent
	if err := p.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, wrapLookup("load parent", err)
	}
	return parentFromRecord(record), nil
}

func (p *Postgres) UpsertParent(ctx context.Context, id uuid.UUID, profile ParentProfile) (*Parent, error) {
	now := p.now()
	record := db.Parent{
		ID:        id,
		Username:  profile.Username,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Omit(clause.Associations).
		Create(&record).Error
	if err != nil {
		return nil, fmt.Errorf("upsert parent: %w", err)
	}
	return p.GetParent(ctx, id)
}

func (p *Postgres) UpdateParent(ctx context.Context, id uuid.UUID, profile ParentProfile) (*Parent, error) {
	updates := map[string]any{
		"first_name": profile.FirstName,
		"last_name":  profile.LastName,
		"updated_at": p.now(),
	}
	if profile.Username != "" {
		updates["username"] = profile.Username
	}
	result := p.db.WithContext(ctx).Model(&db.Parent{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("update parent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return p.GetParent(ctx, id)
}

func (p *Postgres) SubscribeGame(gameID uuid.UUID) *realtime.Subscription {
	return p.broker.Subscribe(realtime.GameTopic(gameID))
}

func (p *Postgres) SubscribePlayer(playerID uuid.UUID) *realtime.Subscription {
	return p.broker.Subscribe(realtime.PlayerTopic(playerID))
}

func (p *Postgres) publish(table, op string, gameID, playerID uuid.UUID, record any) {
	if !p.publishLocal {
		return
	}
	data, err := json.Marshal(record)
	if err != nil {
		return
	}
	p.broker.Publish(realtime.Change{Table: table, Op: op, GameID: gameID, PlayerID: playerID, Record: data})
}

// recordEvent appends to the audit log. Failures are logged, never returned.
func (p *Postgres) recordEvent(ctx context.Context, gameID uuid.UUID, playerID *uuid.UUID, eventType string, payload EventPayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	event := db.Event{
		GameID:    gameID,
		PlayerID:  playerID,
		Type:      eventType,
		Payload:   datatypes.JSON(data),
		CreatedAt: p.now(),
	}
	if err := p.db.WithContext(ctx).Create(&event).Error; err != nil {
		log.Printf("event persist failed game_id=%s type=%s error=%v", gameID, eventType, err)
	}
}

func wrapLookup(action string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", action, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

func gameFromRecord(record db.Game) Game {
	return Game{
		ID:                      record.ID,
		ParentID:                record.ParentID,
		Code:                    record.GameCode,
		Status:                  record.Status,
		Title:                   record.Title,
		Description:             record.Description,
		BabyFirstName:           record.BabyFirstName,
		BabyMiddleName:          record.BabyMiddleName,
		BabyLastName:            record.BabyLastName,
		StartDate:               dayStart(record.StartDate),
		EndDate:                 dayStart(record.EndDate),
		MaxCluesPerPlayer:       record.MaxCluesPerPlayer,
		AllowMultipleGuesses:    record.AllowMultipleGuesses,
		ShowOtherPlayersGuesses: record.ShowOtherPlayersGuesses,
		CreatedAt:               record.CreatedAt,
		UpdatedAt:               record.UpdatedAt,
	}
}

func playerFromRecord(record db.Player) Player {
	return Player{
		ID:               record.ID,
		GameID:           record.GameID,
		Name:             record.Name,
		Email:            record.Email,
		UserAgent:        record.UserAgent,
		JoinedAt:         record.JoinedAt,
		LastActive:       record.LastActive,
		CluesRevealed:    record.CluesRevealed,
		HasWon:           record.HasWon,
		WonAt:            record.WonAt,
		FinalTimeSeconds: record.FinalTimeSeconds,
	}
}

func guessFromRecord(record db.PlayerGuess) Guess {
	return Guess{
		ID:                 record.ID,
		PlayerID:           record.PlayerID,
		GameID:             record.GameID,
		Text:               record.GuessText,
		Status:             record.Status,
		TimeElapsedSeconds: record.TimeElapsedSeconds,
		CluesUsed:          record.CluesUsedWhenGuessed,
		GuessedAt:          record.GuessedAt,
	}
}

func accountFromRecord(record db.Account) *Account {
	account := &Account{
		ID:            record.ID,
		Email:         record.Email,
		PasswordHash:  record.PasswordHash,
		OAuthProvider: record.OAuthProvider,
		OAuthSubject:  record.OAuthSubject,
		CreatedAt:     record.CreatedAt,
	}
	if len(record.Metadata) > 0 {
		if err := json.Unmarshal(record.Metadata, &account.Metadata); err != nil {
			log.Printf("account metadata unreadable account_id=%s error=%v", record.ID, err)
		}
	}
	return account
}

func parentFromRecord(record db.Parent) *Parent {
	return &Parent{
		ID:        record.ID,
		Username:  record.Username,
		FirstName: record.FirstName,
		LastName:  record.LastName,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}
