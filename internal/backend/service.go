package backend

import (
	"context"
	"crypto/rand"
	"regexp"
	"sort"
	"strings"
	"time"

	"baby-name-game/internal/realtime"

	"github.com/google/uuid"
)

// Service is the storage contract the game, form and auth layers depend on.
type Service interface {
	CreateGame(ctx context.Context, input CreateGameInput) (*Game, error)
	UpdateGameStatus(ctx context.Context, gameID uuid.UUID, status string) (*Game, error)
	GetGameByCode(ctx context.Context, code string) (*GameWithClues, error)
	GetGameByID(ctx context.Context, id uuid.UUID) (*GameWithClues, error)
	ExpireGames(ctx context.Context, now time.Time) (int, error)

	JoinGame(ctx context.Context, gameID uuid.UUID, name string, email, userAgent *string) (*Player, error)
	GetPlayer(ctx context.Context, gameID uuid.UUID, name string) (*Player, error)
	GetPlayerByID(ctx context.Context, id uuid.UUID) (*Player, error)
	TouchPlayer(ctx context.Context, playerID uuid.UUID) error
	RevealClue(ctx context.Context, playerID uuid.UUID, limit int) (*Player, error)
	SubmitGuess(ctx context.Context, input SubmitGuessInput) (*Guess, error)
	ListPlayerGuesses(ctx context.Context, playerID uuid.UUID) ([]Guess, error)
	Leaderboard(ctx context.Context, gameID uuid.UUID) ([]LeaderboardEntry, error)
	ListParentGames(ctx context.Context, parentID uuid.UUID) ([]GameSummary, error)
	// ListParentGamesPage returns one newest-first window of the parent's games and their total count.
	ListParentGamesPage(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]GameSummary, int64, error)

	CreateAccount(ctx context.Context, input CreateAccountInput) (*Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*Account, error)
	FindAccountByOAuth(ctx context.Context, provider, subject string) (*Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	GetParent(ctx context.Context, id uuid.UUID) (*Parent, error)
	UpsertParent(ctx context.Context, id uuid.UUID, profile ParentProfile) (*Parent, error)
	UpdateParent(ctx context.Context, id uuid.UUID, profile ParentProfile) (*Parent, error)

	SubscribeGame(gameID uuid.UUID) *realtime.Subscription
	SubscribePlayer(playerID uuid.UUID) *realtime.Subscription
}

var gameCodePattern = regexp.MustCompile(`^[A-Z0-9]{4,10}$`)

// NormalizeCode upper-cases and trims a user-entered game code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeName trims a player name and collapses inner whitespace runs to one space.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

func IsValidGameCode(code string) bool {
	return gameCodePattern.MatchString(NormalizeCode(code))
}

// IsGameActive reports whether players may join and play at now.
// The window is inclusive: the game opens at the start of StartDate and
// stays open through the last instant of EndDate.
func IsGameActive(game *Game, now time.Time) bool {
	if game == nil || game.Status != StatusActive {
		return false
	}
	start := dayStart(game.StartDate)
	end := dayStart(game.EndDate).Add(24 * time.Hour)
	now = now.UTC()
	return !now.Before(start) && now.Before(end)
}

// HasEnded reports whether the whole end day is behind now.
func HasEnded(game *Game, now time.Time) bool {
	return !now.UTC().Before(dayStart(game.EndDate).Add(24 * time.Hour))
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(time.DateOnly, strings.TrimSpace(value))
}

func newGameCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "AAAAAA"
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}

const maxCodeAttempts = 8

func cleanClues(clues []string) []string {
	cleaned := make([]string, 0, len(clues))
	for _, clue := range clues {
		if text := strings.TrimSpace(clue); text != "" {
			cleaned = append(cleaned, text)
		}
	}
	return cleaned
}

func validStatus(status string) bool {
	switch status {
	case StatusDraft, StatusActive, StatusCompleted, StatusExpired:
		return true
	}
	return false
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// RankLeaderboard orders entries and assigns ranks to winners.
// Winners rank by final time, then clues used, then wrong guesses, then who won first.
// Non-winners follow, unranked, by name.
func RankLeaderboard(entries []LeaderboardEntry) []LeaderboardEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.HasWon != b.HasWon {
			return a.HasWon
		}
		if !a.HasWon {
			return a.PlayerName < b.PlayerName
		}
		if at, bt := intOr(a.FinalTimeSeconds), intOr(b.FinalTimeSeconds); at != bt {
			return at < bt
		}
		if a.CluesRevealed != b.CluesRevealed {
			return a.CluesRevealed < b.CluesRevealed
		}
		if a.IncorrectGuesses != b.IncorrectGuesses {
			return a.IncorrectGuesses < b.IncorrectGuesses
		}
		return timeOr(a.WonAt).Before(timeOr(b.WonAt))
	})
	rank := 0
	for i := range entries {
		if !entries[i].HasWon {
			entries[i].Rank = nil
			continue
		}
		rank++
		value := rank
		entries[i].Rank = &value
	}
	return entries
}

func intOr(value *int) int {
	if value == nil {
		return int(^uint(0) >> 1)
	}
	return *value
}

func timeOr(value *time.Time) time.Time {
	if value == nil {
		return time.Time{}
	}
	return *value
}
