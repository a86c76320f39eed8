package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Account struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Email         string         `gorm:"size:320;uniqueIndex;not null"`
	PasswordHash  *string        `gorm:"size:100"`
	OAuthProvider *string        `gorm:"column:oauth_provider;size:32"`
	OAuthSubject  *string        `gorm:"column:oauth_subject;size:255"`
	Metadata      datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt     time.Time      `gorm:"not null"`
	UpdatedAt     time.Time      `gorm:"not null"`
}

type Parent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username  string    `gorm:"size:64;not null"`
	FirstName *string   `gorm:"size:64"`
	LastName  *string   `gorm:"size:64"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Games     []Game
}

type Game struct {
	ID                      uuid.UUID `gorm:"type:uuid;primaryKey"`
	ParentID                uuid.UUID `gorm:"type:uuid;index;not null"`
	GameCode                string    `gorm:"size:12;uniqueIndex;not null"`
	Title                   string    `gorm:"size:64;not null"`
	Description             *string   `gorm:"size:256"`
	BabyFirstName           string    `gorm:"size:32;not null"`
	BabyMiddleName          *string   `gorm:"size:32"`
	BabyLastName            *string   `gorm:"size:32"`
	StartDate               time.Time `gorm:"type:date;not null"`
	EndDate                 time.Time `gorm:"type:date;not null"`
	Status                  string    `gorm:"size:16;not null;default:draft"`
	MaxCluesPerPlayer       int       `gorm:"not null;default:5"`
	AllowMultipleGuesses    bool      `gorm:"not null;default:true"`
	ShowOtherPlayersGuesses bool      `gorm:"not null;default:false"`
	CreatedAt               time.Time `gorm:"not null"`
	UpdatedAt               time.Time `gorm:"not null"`
	Clues                   []GameClue `gorm:"foreignKey:GameID"`
	Players                 []Player
}

type GameClue struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	GameID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_game_clues_order"`
	ClueText  string    `gorm:"size:80;not null"`
	ClueOrder int       `gorm:"not null;uniqueIndex:idx_game_clues_order"`
	CreatedAt time.Time `gorm:"not null"`
}

type Player struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	GameID           uuid.UUID  `gorm:"type:uuid;index;not null;uniqueIndex:idx_players_game_name"`
	Name             string     `gorm:"size:64;not null;uniqueIndex:idx_players_game_name"`
	Email            *string    `gorm:"size:320"`
	IPAddress        *string    `gorm:"column:ip_address;size:64"`
	UserAgent        *string    `gorm:"size:512"`
	JoinedAt         time.Time  `gorm:"not null"`
	LastActive       time.Time  `gorm:"not null"`
	CluesRevealed    int        `gorm:"not null;default:0"`
	HasWon           bool       `gorm:"not null;default:false"`
	WonAt            *time.Time
	FinalTimeSeconds *int
	Guesses          []PlayerGuess
}

type PlayerGuess struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	PlayerID             uuid.UUID `gorm:"type:uuid;index;not null"`
	GameID               uuid.UUID `gorm:"type:uuid;index;not null"`
	GuessText            string    `gorm:"size:128;not null"`
	Status               string    `gorm:"size:16;not null"`
	GuessedAt            time.Time `gorm:"not null"`
	TimeElapsedSeconds   int       `gorm:"not null"`
	CluesUsedWhenGuessed int       `gorm:"not null;default:0"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	GameID    uuid.UUID      `gorm:"type:uuid;index;not null"`
	PlayerID  *uuid.UUID     `gorm:"type:uuid;index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

// GameSummaryRow is a row of the parent_games_summary view.
type GameSummaryRow struct {
	ID             uuid.UUID
	ParentID       uuid.UUID
	Title          string
	GameCode       string
	Status         string
	StartDate      time.Time
	EndDate        time.Time
	BabyFirstName  string
	BabyMiddleName *string
	BabyLastName   *string
	TotalPlayers   int
	WinnersCount   int
	TotalGuesses   int
	CreatedAt      time.Time
}

// LeaderboardRow is a row of the game_leaderboard view.
type LeaderboardRow struct {
	GameID           uuid.UUID
	GameTitle        string
	GameCode         string
	PlayerID         uuid.UUID
	PlayerName       string
	HasWon           bool
	WonAt            *time.Time
	FinalTimeSeconds *int
	CluesRevealed    int
	TotalGuesses     int
	IncorrectGuesses int
	Rank             *int
}

func (GameClue) TableName() string {
	return "game_clues"
}

func (PlayerGuess) TableName() string {
	return "player_guesses"
}
