package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"baby-name-game/internal/backend"

	"github.com/google/uuid"
)

var gameDay = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

type countingService struct {
	backend.Service
	reveals  atomic.Int32
	failNext atomic.Bool
}

func (c *countingService) RevealClue(ctx context.Context, playerID uuid.UUID, limit int) (*backend.Player, error) {
	c.reveals.Add(1)
	if c.failNext.Swap(false) {
		return nil, errors.New("connection reset")
	}
	return c.Service.RevealClue(ctx, playerID, limit)
}

func (c *countingService) SubmitGuess(ctx context.Context, input backend.SubmitGuessInput) (*backend.Guess, error) {
	if c.failNext.Swap(false) {
		return nil, errors.New("connection reset")
	}
	return c.Service.SubmitGuess(ctx, input)
}

func newActiveGame(t *testing.T, store *backend.Memory, firstName string, clues ...string) *backend.Game {
	t.Helper()
	ctx := context.Background()
	game, err := store.CreateGame(ctx, backend.CreateGameInput{
		ParentID:      uuid.New(),
		Title:         "Baby Reveal",
		BabyFirstName: firstName,
		StartDate:     gameDay,
		EndDate:       gameDay.AddDate(0, 0, 7),
		Clues:         clues,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if _, err := store.UpdateGameStatus(ctx, game.ID, backend.StatusActive); err != nil {
		t.Fatalf("activate game: %v", err)
	}
	return game
}

func newPlayingSession(t *testing.T, svc backend.Service, now *fakeNow, code, name string) *Session {
	t.Helper()
	s := New(svc, Options{Now: now.Now, SummaryDelay: time.Hour, TickInterval: time.Hour})
	t.Cleanup(s.Close)
	ctx := context.Background()
	if err := s.Load(ctx, code); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.State() != StateAwaitingName {
		t.Fatalf("expected awaiting-name, got %s", s.State())
	}
	if err := s.Join(ctx, name); err != nil {
		t.Fatalf("join: %v", err)
	}
	return s
}

func TestLoadUnknownGame(t *testing.T) {
	s := New(backend.NewMemory(nil), Options{})
	defer s.Close()
	if err := s.Load(context.Background(), "NOPE12"); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	view := s.Snapshot()
	if view.State != StateError || view.Error != msgGameNotFound {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestLoadInactiveGame(t *testing.T) {
	store := backend.NewMemory(nil)
	game := newActiveGame(t, store, "Emma", "one")
	now := newFakeNow(gameDay.AddDate(0, 0, 30))
	s := New(store, Options{Now: now.Now})
	defer s.Close()
	if err := s.Load(context.Background(), game.Code); err != nil {
		t.Fatalf("load: %v", err)
	}
	view := s.Snapshot()
	if view.State != StateError || view.Error != msgGameInactive {
		t.Fatalf("unexpected view %+v", view)
	}
	if err := s.Join(context.Background(), "Alex"); !errors.Is(err, ErrWrongState) {
		t.Fatalf("expected wrong state, got %v", err)
	}
}

func TestJoinRejectsBlankName(t *testing.T) {
	store := backend.NewMemory(nil)
	game := newActiveGame(t, store, "Emma", "one")
	s := New(store, Options{Now: newFakeNow(gameDay).Now})
	defer s.Close()
	ctx := context.Background()
	s.Load(ctx, game.Code)
	if err := s.Join(ctx, "   "); !errors.Is(err, ErrBlankName) {
		t.Fatalf("expected blank name error, got %v", err)
	}
	if s.State() != StateAwaitingName {
		t.Fatalf("expected to stay in awaiting-name, got %s", s.State())
	}
}

func TestRejoinRehydratesProgress(t *testing.T) {
	store := backend.NewMemory(nil)
	game := newActiveGame(t, store, "Emma", "one", "two", "three")
	now := newFakeNow(gameDay)
	ctx := context.Background()

	first := newPlayingSession(t, store, now, game.Code, "Alex")
	if err := first.RevealClue(ctx); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	for _, guess := range []string{"Ava", "Mia", "Zoe"} {
		if _, err := first.SubmitGuess(ctx, guess); err != nil {
			t.Fatalf("guess: %v", err)
		}
	}
	first.Close()

	now.Advance(10 * time.Minute)
	second := newPlayingSession(t, store, now, game.Code, "Alex")
	view := second.Snapshot()
	if view.State != StatePlaying {
		t.Fatalf("expected playing, got %s", view.State)
	}
	if view.CluesRevealed != 1 || len(view.Clues) != 1 {
		t.Fatalf("expected one revealed clue, got %d", view.CluesRevealed)
	}
	if view.IncorrectGuesses != 3 {
		t.Fatalf("expected 3 incorrect guesses, got %d", view.IncorrectGuesses)
	}
	if strings.Join(view.PreviousGuesses, ",") != "Zoe,Mia,Ava" {
		t.Fatalf("expected newest first, got %v", view.PreviousGuesses)
	}
	if view.Elapsed != "00:00" {
		t.Fatalf("expected clock anchored at join, got %s", view.Elapsed)
	}
}

func TestRejoinAfterWinGoesStraightToWon(t *testing.T) {
	store := backend.NewMemory(nil)
	game := newActiveGame(t, store, "Emma", "one")
	now := newFakeNow(gameDay)
	store.SetClock(now.Now)
	ctx := context.Background()

	first := newPlayingSession(t, store, now, game.Code, "Alex")
	now.Advance(75 * time.Second)
	if correct, err := first.SubmitGuess(ctx, "emma"); err != nil || !correct {
		t.Fatalf("expected correct guess, got %v %v", correct, err)
	}
	first.Close()

	now.Advance(time.Hour)
	second := newPlayingSession(t, store, now, game.Code, "Alex")
	view := second.Snapshot()
	if view.State != StateWon {
		t.Fatalf("expected won, got %s", view.State)
	}
	if view.Summary == nil || view.Summary.FinalTime != "01:15" {
		t.Fatalf("expected final time 01:15, got %+v", view.Summary)
	}
	if _, err := second.SubmitGuess(ctx, "emma"); !errors.Is(err, ErrWrongState) {
		t.Fatalf("expected no more guesses after winning, got %v", err)
	}
}

func TestRevealClueBound(t *testing.T) {
	store := backend.NewMemory(nil)
	game := newActiveGame(t, store, "Emma", "one", "two")
	svc := &countingService{Service: store}
	s := newPlayingSession(t, svc, newFakeNow(gameDay), game.Code, "Alex")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.RevealClue(ctx); err != nil {
			t.Fatalf("reveal %d: %v", i, err)
		}
	}
	if err := s.RevealClue(ctx); !errors.Is(err, backend.ErrNoMoreClues) {
		t.Fatalf("expected no more clues, got %v", err)
	}
	if got := svc.reveals.Load(); got != 2 {
		t.Fatalf("expected 2 backend calls, got %d", got)
	}
	if view := s.Snapshot(); view.CanRevealClue || view.CluesRevealed != 2 {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestRevealAdoptsCountFromOtherDevice(t *testing.T) {
	store := backend.NewMemory(nil)
	game := newActiveGame(t, store, "Emma", "one", "two")
	now := newFakeNow(gameDay)
	phone := newPlayingSession(t, store, now, game.Code, "Alex")
	laptop := newPlayingSession(t, store, now, game.Code, "Alex")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := phone.RevealClue(ctx); err != nil {
			t.Fatalf("reveal %d: %v", i, err)
		}
	}
	if err := laptop.RevealClue(ctx); !errors.Is(err, backend.ErrNoMoreClues) {
		t.Fatalf("expected no more clues, got %v", err)
	}
	view := laptop.Snapshot()
	if view.CluesRevealed != 2 || len(view.Clues) != 2 || view.CanRevealClue {
		t.Fatalf("expected laptop to show both clues, got %+v", view)
	}
	if view.Feedback.Kind == FeedbackError {
		t.Fatalf("expected no error feedback, got %+v", view.Feedback)
	}
}

func TestRevealFailureKeepsState(t *testing.T) {
	store := backend.NewMemory(nil)
	game := newActiveGame(t, store, "Emma", "one", "two")
	svc := &countingService{Service: store}
	s := newPlayingSession(t, svc, newFakeNow(gameDay), game.Code, "Alex")
	svc.failNext.Store(true)
	if err := s.RevealClue(context.Background()); err == nil {
		t.Fatalf("expected reveal error")
	}
	view := s.Snapshot()
	if view.State != StatePlaying || view.CluesRevealed != 0 || view.Feedback.Kind != FeedbackError {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestGuessComparison(t *testing.T) {
	cases := []struct {
		guess string
		want  bool
	}{
		{"  emma ", true},
		{"EMMA", true},
		{"Emmaa", false},
		{"Em ma", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsCorrectGuess(tc.guess, "Emma"); got != tc.want {
			t.Fatalf("IsCorrectGuess(%q): expected %v", tc.guess, tc.want)
		}
	}
}

func TestSubmitGuessFailureChangesNothing(t *testing.T) {
	store := backend.NewMemory(nil)
	game := newActiveGame(t, store, "Emma", "one")
	svc := &countingService{Service: store}
	s := newPlayingSession(t, svc, newFakeNow(gameDay), game.Code, "Alex")
	svc.failNext.Store(true)
	if _, err := s.SubmitGuess(context.Background(), "Ava"); err == nil {
		t.Fatalf("expected submit error")
	}
	view := s.Snapshot()
	if view.State != StatePlaying || view.IncorrectGuesses != 0 || len(view.PreviousGuesses) != 0 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Feedback.Kind != FeedbackError {
		t.Fatalf("expected error feedback, got %+v", view.Feedback)
	}
}

func TestBlankGuessIgnored(t *testing.T) {
	store := backend.NewMemory(nil)
	game := newActiveGame(t, store, "Emma", "one")
	s := newPlayingSession(t, store, newFakeNow(gameDay), game.Code, "Alex")
	if correct, err := s.SubmitGuess(context.Background(), "   "); correct || err != nil {
		t.Fatalf("expected blank guess to be ignored")
	}
	guesses, _ := store.ListPlayerGuesses(context.Background(), s.PlayerID())
	if len(guesses) != 0 {
		t.Fatalf("expected no recorded guesses, got %d", len(guesses))
	}
}

func TestPreviousGuessesCapAndTruncation(t *testing.T) {
	store := backend.NewMemory(nil)
	game := newActiveGame(t, store, "Emma", "one")
	s := newPlayingSession(t, store, newFakeNow(gameDay), game.Code, "Alex")
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		if _, err := s.SubmitGuess(ctx, fmt.Sprintf("Guess%02d", i)); err != nil {
			t.Fatalf("guess %d: %v", i, err)
		}
	}
	if _, err := s.SubmitGuess(ctx, "Maximiliano"); err != nil {
		t.Fatalf("long guess: %v", err)
	}
	view := s.Snapshot()
	if view.IncorrectGuesses != 26 {
		t.Fatalf("expected 26 incorrect, got %d", view.IncorrectGuesses)
	}
	if len(view.PreviousGuesses) != MaxPreviousGuesses {
		t.Fatalf("expected %d retained, got %d", MaxPreviousGuesses, len(view.PreviousGuesses))
	}
	if view.PreviousGuesses[0] != "Maximilian…" {
		t.Fatalf("expected truncated newest guess, got %q", view.PreviousGuesses[0])
	}
	if FormatGuess("Elizabeth") != "Elizabeth" {
		t.Fatalf("expected short guess unchanged")
	}
}

func TestSummaryOpensAfterDelay(t *testing.T) {
	store := backend.NewMemory(nil)
	game := newActiveGame(t, store, "Emma", "one")
	opened := make(chan uuid.UUID, 1)
	s := New(store, Options{
		Now:          newFakeNow(gameDay).Now,
		SummaryDelay: 20 * time.Millisecond,
		OnSummary:    func(playerID uuid.UUID) { opened <- playerID },
	})
	defer s.Close()
	ctx := context.Background()
	s.Load(ctx, game.Code)
	s.Join(ctx, "Alex")
	if _, err := s.SubmitGuess(ctx, "Emma"); err != nil {
		t.Fatalf("guess: %v", err)
	}
	view := s.Snapshot()
	if view.SummaryOpen || view.Feedback.Kind != FeedbackSuccess {
		t.Fatalf("expected success feedback before the summary, got %+v", view)
	}
	select {
	case id := <-opened:
		if id != s.PlayerID() {
			t.Fatalf("summary for wrong player")
		}
	case <-time.After(time.Second):
		t.Fatalf("summary never opened")
	}
	if !s.Snapshot().SummaryOpen {
		t.Fatalf("expected summary open")
	}
}

func TestCloseCancelsSummary(t *testing.T) {
	store := backend.NewMemory(nil)
	game := newActiveGame(t, store, "Emma", "one")
	var fired atomic.Bool
	s := New(store, Options{
		Now:          newFakeNow(gameDay).Now,
		SummaryDelay: 30 * time.Millisecond,
		OnSummary:    func(uuid.UUID) { fired.Store(true) },
	})
	ctx := context.Background()
	s.Load(ctx, game.Code)
	s.Join(ctx, "Alex")
	s.SubmitGuess(ctx, "Emma")
	s.Close()
	time.Sleep(80 * time.Millisecond)
	if fired.Load() {
		t.Fatalf("expected summary timer to be cancelled")
	}
}

func TestCreateJoinRevealGuessScenario(t *testing.T) {
	store := backend.NewMemory(nil)
	ctx := context.Background()
	today := time.Now().UTC()
	game, err := store.CreateGame(ctx, backend.CreateGameInput{
		ParentID:      uuid.New(),
		Title:         "Guess the name",
		BabyFirstName: "Olivia",
		StartDate:     today.AddDate(0, 0, -1),
		EndDate:       today.AddDate(0, 0, 1),
		Clues:         []string{"Starts with O", "Six letters", "Shakespeare"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.UpdateGameStatus(ctx, game.ID, backend.StatusActive); err != nil {
		t.Fatalf("activate: %v", err)
	}

	s := New(store, Options{SummaryDelay: time.Hour})
	defer s.Close()
	if err := s.Load(ctx, game.Code); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.Join(ctx, "Alex"); err != nil {
		t.Fatalf("join: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.RevealClue(ctx); err != nil {
			t.Fatalf("reveal: %v", err)
		}
	}
	player, _ := store.GetPlayerByID(ctx, s.PlayerID())
	if player.CluesRevealed != 2 {
		t.Fatalf("expected 2 clues revealed, got %d", player.CluesRevealed)
	}
	if _, err := store.RevealClue(ctx, player.ID, 2); !errors.Is(err, backend.ErrNoMoreClues) {
		t.Fatalf("expected a second reveal at the limit to be rejected, got %v", err)
	}

	if correct, _ := s.SubmitGuess(ctx, "Olive"); correct {
		t.Fatalf("expected wrong guess")
	}
	if got := s.Snapshot().IncorrectGuesses; got != 1 {
		t.Fatalf("expected 1 incorrect guess, got %d", got)
	}
	if correct, err := s.SubmitGuess(ctx, " OLIVIA "); err != nil || !correct {
		t.Fatalf("expected correct guess, got %v %v", correct, err)
	}

	player, _ = store.GetPlayerByID(ctx, s.PlayerID())
	if !player.HasWon {
		t.Fatalf("expected player marked as won")
	}
	view := s.Snapshot()
	if view.State != StateWon || view.Summary == nil {
		t.Fatalf("expected won view with summary, got %+v", view)
	}
	if view.Summary.CluesUsed != 2 || view.Summary.TotalClues != 3 || view.Summary.IncorrectGuesses != 1 {
		t.Fatalf("unexpected summary %+v", view.Summary)
	}
	if len(view.Summary.RecentGuesses) != 1 || view.Summary.RecentGuesses[0] != "Olive" {
		t.Fatalf("unexpected recent guesses %v", view.Summary.RecentGuesses)
	}
}
