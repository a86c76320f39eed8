package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"baby-name-game/internal/backend"

	"github.com/google/uuid"
)

type State string

const (
	StateLoading      State = "loading"
	StateError        State = "error"
	StateAwaitingName State = "awaiting-name"
	StatePlaying      State = "playing"
	StateWon          State = "won"
)

const (
	FeedbackSuccess = "success"
	FeedbackError   = "error"

	MaxPreviousGuesses = 20
	SummaryGuesses     = 8
	GuessDisplayRunes  = 10

	DefaultSummaryDelay = 1200 * time.Millisecond

	msgGameNotFound = "Game not found or could not be loaded."
	msgGameInactive = "This game is not currently active."
	msgJoinFailed   = "Failed to join game"
)

var (
	ErrWrongState = errors.New("action not allowed in the current state")
	ErrBlankName  = errors.New("name is required")
)

type Feedback struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type Options struct {
	Now          func() time.Time
	SummaryDelay time.Duration
	TickInterval time.Duration
	UserAgent    string
	// OnTick receives the formatted clock once per tick while playing.
	OnTick func(playerID uuid.UUID, elapsed string)
	// OnSummary fires when the win summary becomes visible.
	OnSummary func(playerID uuid.UUID)
}

// Session tracks one player's progress through one game.
type Session struct {
	mu          sync.Mutex
	svc         backend.Service
	opts        Options
	clock       *Clock
	state       State
	errMsg      string
	game        *backend.GameWithClues
	player      *backend.Player
	revealed    int
	incorrect   int
	previous    []string
	feedback    Feedback
	summaryOpen bool
	summary     *time.Timer
	lastSeen    time.Time
}

func New(svc backend.Service, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.SummaryDelay <= 0 {
		opts.SummaryDelay = DefaultSummaryDelay
	}
	s := &Session{svc: svc, opts: opts, state: StateLoading}
	s.clock = NewClock(opts.Now, opts.TickInterval, s.tick)
	s.lastSeen = opts.Now()
	return s
}

// Load fetches the game and decides whether it can be played right now.
func (s *Session) Load(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	game, err := s.svc.GetGameByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, backend.ErrNotFound) {
			log.Printf("game load failed code=%s error=%v", code, err)
		}
		s.fail(msgGameNotFound)
		return err
	}
	s.game = game
	if !backend.IsGameActive(&game.Game, s.opts.Now()) {
		s.fail(msgGameInactive)
		return nil
	}
	s.state = StateAwaitingName
	return nil
}

// Join adopts an existing player of that name or creates one, then starts the clock.
func (s *Session) Join(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if s.state != StateAwaitingName {
		return ErrWrongState
	}
	name = backend.NormalizeName(name)
	if name == "" {
		return ErrBlankName
	}

	player, err := s.svc.GetPlayer(ctx, s.game.ID, name)
	switch {
	case err == nil:
		if err := s.rehydrate(ctx, player); err != nil {
			log.Printf("guess history load failed player_id=%s error=%v", player.ID, err)
		}
	case errors.Is(err, backend.ErrNotFound):
		var userAgent *string
		if s.opts.UserAgent != "" {
			ua := s.opts.UserAgent
			userAgent = &ua
		}
		player, err = s.svc.JoinGame(ctx, s.game.ID, name, nil, userAgent)
		if err != nil {
			log.Printf("join failed game_id=%s player=%s error=%v", s.game.ID, name, err)
			if errors.Is(err, backend.ErrDuplicateName) {
				s.fail(err.Error())
			} else {
				s.fail(msgJoinFailed)
			}
			return err
		}
		log.Printf("player joined game_id=%s player_id=%s", s.game.ID, player.ID)
	default:
		log.Printf("player lookup failed game_id=%s player=%s error=%v", s.game.ID, name, err)
		s.fail(msgJoinFailed)
		return err
	}

	s.player = player
	anchor := s.opts.Now()
	if player.HasWon {
		s.state = StateWon
		end := anchor
		if player.WonAt != nil {
			end = *player.WonAt
		}
		if player.FinalTimeSeconds != nil {
			anchor = end.Add(-time.Duration(*player.FinalTimeSeconds) * time.Second)
		} else {
			anchor = player.JoinedAt
		}
		s.clock.Freeze(anchor, end)
		s.armSummaryLocked()
	} else {
		s.state = StatePlaying
		s.clock.Start(anchor)
	}

	if err := s.svc.TouchPlayer(ctx, player.ID); err != nil {
		log.Printf("activity ping failed player_id=%s error=%v", player.ID, err)
	}
	return nil
}

func (s *Session) rehydrate(ctx context.Context, player *backend.Player) error {
	s.revealed = player.CluesRevealed
	guesses, err := s.svc.ListPlayerGuesses(ctx, player.ID)
	if err != nil {
		return err
	}
	s.incorrect = 0
	s.previous = s.previous[:0]
	for _, guess := range guesses {
		if guess.Status != backend.GuessIncorrect {
			continue
		}
		s.incorrect++
		if len(s.previous) < MaxPreviousGuesses {
			s.previous = append(s.previous, guess.Text)
		}
	}
	return nil
}

// RevealClue asks the backend for one more clue.
func (s *Session) RevealClue(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if s.state != StatePlaying {
		return ErrWrongState
	}
	total := len(s.game.Clues)
	if s.revealed >= total {
		return backend.ErrNoMoreClues
	}
	player, err := s.svc.RevealClue(ctx, s.player.ID, total)
	if errors.Is(err, backend.ErrNoMoreClues) {
		// Another device already reached the bound; adopt its count.
		if current, lookupErr := s.svc.GetPlayerByID(ctx, s.player.ID); lookupErr == nil {
			s.player = current
			s.revealed = current.CluesRevealed
			s.feedback = Feedback{}
			return err
		}
	}
	if err != nil {
		log.Printf("reveal clue failed player_id=%s error=%v", s.player.ID, err)
		s.feedback = Feedback{Kind: FeedbackError, Message: "Could not reveal a clue. Try again."}
		return err
	}
	s.player = player
	s.revealed = player.CluesRevealed
	s.feedback = Feedback{}
	return nil
}

// SubmitGuess records a guess and reports whether it matched the baby's first name.
func (s *Session) SubmitGuess(ctx context.Context, text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if s.state != StatePlaying {
		return false, ErrWrongState
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false, nil
	}
	correct := IsCorrectGuess(trimmed, s.game.BabyFirstName)
	elapsed := s.clock.Elapsed()
	_, err := s.svc.SubmitGuess(ctx, backend.SubmitGuessInput{
		PlayerID:           s.player.ID,
		GameID:             s.game.ID,
		Text:               trimmed,
		Correct:            correct,
		TimeElapsedSeconds: int(elapsed / time.Second),
		CluesUsed:          s.revealed,
	})
	if err != nil {
		log.Printf("submit guess failed player_id=%s error=%v", s.player.ID, err)
		s.feedback = Feedback{Kind: FeedbackError, Message: "That's not correct. Try again!"}
		return false, err
	}
	if correct {
		now := s.opts.Now()
		s.clock.StopAt(now)
		final := int(s.clock.Elapsed() / time.Second)
		s.player.HasWon = true
		s.player.WonAt = &now
		s.player.FinalTimeSeconds = &final
		s.state = StateWon
		s.feedback = Feedback{Kind: FeedbackSuccess, Message: "Correct!"}
		s.armSummaryLocked()
		log.Printf("player won game_id=%s player_id=%s seconds=%d", s.game.ID, s.player.ID, final)
		return true, nil
	}
	s.incorrect++
	s.previous = append([]string{trimmed}, s.previous...)
	if len(s.previous) > MaxPreviousGuesses {
		s.previous = s.previous[:MaxPreviousGuesses]
	}
	s.feedback = Feedback{Kind: FeedbackError, Message: "That's not correct. Try again!"}
	return false, nil
}

// IsCorrectGuess compares case-insensitively after trimming surrounding whitespace.
func IsCorrectGuess(guess, firstName string) bool {
	return strings.ToLower(strings.TrimSpace(guess)) == strings.ToLower(firstName)
}

// Close stops the clock and any pending summary timer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clock.Running() {
		s.clock.Stop()
	}
	if s.summary != nil {
		s.summary.Stop()
		s.summary = nil
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) PlayerID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return uuid.Nil
	}
	return s.player.ID
}

// Touch records activity so the registry keeps the session alive.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) fail(message string) {
	s.state = StateError
	s.errMsg = message
}

func (s *Session) touchLocked() {
	s.lastSeen = s.opts.Now()
}

func (s *Session) armSummaryLocked() {
	if s.summary != nil {
		s.summary.Stop()
	}
	playerID := s.player.ID
	s.summary = time.AfterFunc(s.opts.SummaryDelay, func() {
		s.mu.Lock()
		if s.state != StateWon {
			s.mu.Unlock()
			return
		}
		s.summaryOpen = true
		s.feedback = Feedback{}
		hook := s.opts.OnSummary
		s.mu.Unlock()
		if hook != nil {
			hook(playerID)
		}
	})
}

func (s *Session) tick(elapsed time.Duration) {
	s.mu.Lock()
	hook := s.opts.OnTick
	var playerID uuid.UUID
	if s.player != nil {
		playerID = s.player.ID
	}
	s.mu.Unlock()
	if hook != nil && playerID != uuid.Nil {
		hook(playerID, FormatElapsed(elapsed))
	}
}
