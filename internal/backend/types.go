package backend

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusExpired   = "expired"

	GuessCorrect   = "correct"
	GuessIncorrect = "incorrect"

	DefaultMaxClues = 5
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("a player with that name already joined this game")
	ErrNoMoreClues   = errors.New("no more clues")
	ErrEmailTaken    = errors.New("email already registered")
	ErrInvalidStatus = errors.New("invalid game status")
)

type Game struct {
	ID                      uuid.UUID `json:"id"`
	ParentID                uuid.UUID `json:"parent_id"`
	Code                    string    `json:"game_code"`
	Status                  string    `json:"status"`
	Title                   string    `json:"title"`
	Description             *string   `json:"description,omitempty"`
	BabyFirstName           string    `json:"baby_first_name"`
	BabyMiddleName          *string   `json:"baby_middle_name,omitempty"`
	BabyLastName            *string   `json:"baby_last_name,omitempty"`
	StartDate               time.Time `json:"start_date"`
	EndDate                 time.Time `json:"end_date"`
	MaxCluesPerPlayer       int       `json:"max_clues_per_player"`
	AllowMultipleGuesses    bool      `json:"allow_multiple_guesses"`
	ShowOtherPlayersGuesses bool      `json:"show_other_players_guesses"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

type Clue struct {
	ID     uuid.UUID `json:"id"`
	GameID uuid.UUID `json:"game_id"`
	Text   string    `json:"clue_text"`
	Order  int       `json:"clue_order"`
}

type GameWithClues struct {
	Game
	Clues []Clue `json:"clues"`
}

type Player struct {
	ID               uuid.UUID  `json:"id"`
	GameID           uuid.UUID  `json:"game_id"`
	Name             string     `json:"name"`
	Email            *string    `json:"email,omitempty"`
	UserAgent        *string    `json:"user_agent,omitempty"`
	JoinedAt         time.Time  `json:"joined_at"`
	LastActive       time.Time  `json:"last_active"`
	CluesRevealed    int        `json:"clues_revealed"`
	HasWon           bool       `json:"has_won"`
	WonAt            *time.Time `json:"won_at,omitempty"`
	FinalTimeSeconds *int       `json:"final_time_seconds,omitempty"`
}

type Guess struct {
	ID                 uuid.UUID `json:"id"`
	PlayerID           uuid.UUID `json:"player_id"`
	GameID             uuid.UUID `json:"game_id"`
	Text               string    `json:"guess_text"`
	Status             string    `json:"status"`
	TimeElapsedSeconds int       `json:"time_elapsed_seconds"`
	CluesUsed          int       `json:"clues_used_when_guessed"`
	GuessedAt          time.Time `json:"guessed_at"`
}

type Parent struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountMetadata is the profile data captured at sign-up or from the identity provider.
type AccountMetadata struct {
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	FullName  string `json:"full_name,omitempty"`
}

type Account struct {
	ID            uuid.UUID
	Email         string
	PasswordHash  *string
	OAuthProvider *string
	OAuthSubject  *string
	Metadata      AccountMetadata
	CreatedAt     time.Time
}

type GameSummary struct {
	ID             uuid.UUID `json:"id"`
	ParentID       uuid.UUID `json:"parent_id"`
	Title          string    `json:"title"`
	Code           string    `json:"game_code"`
	Status         string    `json:"status"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	BabyFirstName  string    `json:"baby_first_name"`
	BabyMiddleName *string   `json:"baby_middle_name,omitempty"`
	BabyLastName   *string   `json:"baby_last_name,omitempty"`
	TotalPlayers   int       `json:"total_players"`
	WinnersCount   int       `json:"winners_count"`
	TotalGuesses   int       `json:"total_guesses"`
	CreatedAt      time.Time `json:"created_at"`
}

type LeaderboardEntry struct {
	GameID           uuid.UUID  `json:"game_id"`
	PlayerID         uuid.UUID  `json:"player_id"`
	PlayerName       string     `json:"player_name"`
	HasWon           bool       `json:"has_won"`
	WonAt            *time.Time `json:"won_at,omitempty"`
	FinalTimeSeconds *int       `json:"final_time_seconds,omitempty"`
	CluesRevealed    int        `json:"clues_revealed"`
	TotalGuesses     int        `json:"total_guesses"`
	IncorrectGuesses int        `json:"incorrect_guesses"`
	Rank             *int       `json:"rank,omitempty"`
}

type CreateGameInput struct {
	ParentID                uuid.UUID
	Title                   string
	Description             *string
	BabyFirstName           string
	BabyMiddleName          *string
	BabyLastName            *string
	StartDate               time.Time
	EndDate                 time.Time
	MaxCluesPerPlayer       int
	AllowMultipleGuesses    bool
	ShowOtherPlayersGuesses bool
	Clues                   []string
}

type SubmitGuessInput struct {
	PlayerID           uuid.UUID
	GameID             uuid.UUID
	Text               string
	Correct            bool
	TimeElapsedSeconds int
	CluesUsed          int
}

type CreateAccountInput struct {
	Email         string
	PasswordHash  *string
	OAuthProvider *string
	OAuthSubject  *string
	Metadata      AccountMetadata
}

type ParentProfile struct {
	Username  string
	FirstName *string
	LastName  *string
}

type EventPayload struct {
	GameCode      string `json:"game_code,omitempty"`
	PlayerName    string `json:"player,omitempty"`
	Status        string `json:"status,omitempty"`
	Guess         string `json:"guess,omitempty"`
	CluesRevealed int    `json:"clues_revealed,omitempty"`
	ClueCount     int    `json:"clue_count,omitempty"`
}
