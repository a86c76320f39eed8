package session

import (
	"time"

	"baby-name-game/internal/backend"

	"github.com/google/uuid"
)

// View is a point-in-time copy of everything the play screen renders.
type View struct {
	State            State          `json:"state"`
	Error            string         `json:"error,omitempty"`
	GameID           uuid.UUID      `json:"game_id,omitempty"`
	GameCode         string         `json:"game_code,omitempty"`
	Title            string         `json:"title,omitempty"`
	Description      string         `json:"description,omitempty"`
	PlayerID         uuid.UUID      `json:"player_id,omitempty"`
	PlayerName       string         `json:"player_name,omitempty"`
	Clues            []backend.Clue `json:"clues"`
	TotalClues       int            `json:"total_clues"`
	CluesRevealed    int            `json:"clues_revealed"`
	CanRevealClue    bool           `json:"can_reveal_clue"`
	IncorrectGuesses int            `json:"incorrect_guesses"`
	PreviousGuesses  []string       `json:"previous_guesses"`
	Feedback         Feedback       `json:"feedback"`
	Elapsed          string         `json:"elapsed"`
	SummaryOpen      bool           `json:"summary_open"`
	Summary          *Summary       `json:"summary,omitempty"`
}

type Summary struct {
	FinalTime        string   `json:"final_time"`
	IncorrectGuesses int      `json:"incorrect_guesses"`
	CluesUsed        int      `json:"clues_used"`
	TotalClues       int      `json:"total_clues"`
	RecentGuesses    []string `json:"recent_guesses"`
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := View{
		State:            s.state,
		Error:            s.errMsg,
		Clues:            []backend.Clue{},
		CluesRevealed:    s.revealed,
		IncorrectGuesses: s.incorrect,
		PreviousGuesses:  FormatGuesses(s.previous, MaxPreviousGuesses),
		Feedback:         s.feedback,
		Elapsed:          FormatElapsed(s.clock.Elapsed()),
		SummaryOpen:      s.summaryOpen,
	}
	if s.game != nil {
		view.GameID = s.game.ID
		view.GameCode = s.game.Code
		view.Title = s.game.Title
		if s.game.Description != nil {
			view.Description = *s.game.Description
		}
		view.TotalClues = len(s.game.Clues)
		limit := s.revealed
		if limit > len(s.game.Clues) {
			limit = len(s.game.Clues)
		}
		view.Clues = append(view.Clues, s.game.Clues[:limit]...)
	}
	if s.player != nil {
		view.PlayerID = s.player.ID
		view.PlayerName = s.player.Name
	}
	view.CanRevealClue = s.state == StatePlaying && s.revealed < view.TotalClues
	if s.state == StateWon {
		view.Summary = &Summary{
			FinalTime:        view.Elapsed,
			IncorrectGuesses: s.incorrect,
			CluesUsed:        s.revealed,
			TotalClues:       view.TotalClues,
			RecentGuesses:    FormatGuesses(s.previous, SummaryGuesses),
		}
	}
	return view
}

// FormatGuess shortens a guess to GuessDisplayRunes runes followed by an ellipsis.
func FormatGuess(guess string) string {
	runes := []rune(guess)
	if len(runes) <= GuessDisplayRunes {
		return guess
	}
	return string(runes[:GuessDisplayRunes]) + "…"
}

// FormatGuesses formats at most limit guesses, keeping their order.
func FormatGuesses(guesses []string, limit int) []string {
	if len(guesses) < limit {
		limit = len(guesses)
	}
	out := make([]string, 0, limit)
	for _, guess := range guesses[:limit] {
		out = append(out, FormatGuess(guess))
	}
	return out
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(s.LastSeen())
}
