package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"baby-name-game/internal/app"
	"baby-name-game/internal/auth"
	"baby-name-game/internal/backend"
	"baby-name-game/internal/config"
	"baby-name-game/internal/realtime"
)

func newTestCLI(t *testing.T) (*cli, *backend.Memory, *bytes.Buffer) {
	t.Helper()
	store := backend.NewMemory(nil)
	out := &bytes.Buffer{}
	cfg := config.Default()
	cfg.DatabaseDriver = config.DriverMemory
	cfg.BaseURL = "https://party.example.com"
	c := &cli{
		cfg: cfg,
		open: func(config.Config) (*app.Backend, error) {
			return &app.Backend{Service: store, Broker: realtime.NewBroker()}, nil
		},
		out: out,
	}
	return c, store, out
}

func run(t *testing.T, c *cli, args ...string) error {
	t.Helper()
	cmd := newCmd(c)
	cmd.SetArgs(args)
	cmd.SetOut(c.out)
	return cmd.ExecuteContext(context.Background())
}

func TestCreateAndLeaderboard(t *testing.T) {
	c, store, out := newTestCLI(t)
	if _, err := auth.New(store, "secret").SignUp(context.Background(), auth.SignUpInput{
		Email:    "parent@example.com",
		Password: "secret123",
		Username: "parent",
	}); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	cluesPath := filepath.Join(t.TempDir(), "clues.csv")
	if err := os.WriteFile(cluesPath, []byte("starts with E\n\n\"four, letters\"\n"), 0o644); err != nil {
		t.Fatalf("write clues: %v", err)
	}
	err := run(t, c, "create",
		"--parent-email", "Parent@example.com",
		"--title", "Guess Our Girl",
		"--first", "Emma",
		"--clue", "popular name",
		"--clues-file", cluesPath,
	)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	line := strings.Fields(strings.SplitN(out.String(), "\n", 2)[0])
	code := strings.TrimPrefix(line[len(line)-1], "code=")

	game, err := store.GetGameByCode(context.Background(), code)
	if err != nil {
		t.Fatalf("lookup created game: %v", err)
	}
	if game.Status != backend.StatusActive || len(game.Clues) != 3 {
		t.Fatalf("unexpected game status=%s clues=%d", game.Status, len(game.Clues))
	}
	if game.Clues[1].Text != "starts with E" || game.Clues[2].Text != "four, letters" {
		t.Fatalf("unexpected clue order %+v", game.Clues)
	}
	expectOutput(t, out, "join at https://party.example.com/game/"+code)

	player, err := store.JoinGame(context.Background(), game.ID, "Alex", nil, nil)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := store.SubmitGuess(context.Background(), backend.SubmitGuessInput{
		PlayerID:           player.ID,
		GameID:             game.ID,
		Text:               "Emma",
		Correct:            true,
		TimeElapsedSeconds: 75,
	}); err != nil {
		t.Fatalf("guess: %v", err)
	}

	out.Reset()
	if err := run(t, c, "leaderboard", strings.ToLower(code)); err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	expectOutput(t, out, "Guess Our Girl")
	expectOutput(t, out, "Alex")
	expectOutput(t, out, "01:15")
}

func TestCreateReportsFormErrors(t *testing.T) {
	c, _, _ := newTestCLI(t)
	err := run(t, c, "create", "--parent-email", "parent@example.com", "--first", "Emma")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "game_title: Game title is required.") {
		t.Fatalf("unexpected error %v", err)
	}
	if !strings.Contains(err.Error(), "clues: Add at least 1 clue.") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestQRWritesPNG(t *testing.T) {
	c, store, out := newTestCLI(t)
	game, err := store.CreateGame(context.Background(), backend.CreateGameInput{
		Title:         "Baby",
		BabyFirstName: "Emma",
		Clues:         []string{"clue"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	path := filepath.Join(t.TempDir(), "join.png")
	if err := run(t, c, "qr", game.Code, "--out", path); err != nil {
		t.Fatalf("qr: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read png: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatalf("expected png output")
	}
	expectOutput(t, out, "https://party.example.com/game/"+game.Code)
}

func TestExpire(t *testing.T) {
	c, _, out := newTestCLI(t)
	if err := run(t, c, "expire"); err != nil {
		t.Fatalf("expire: %v", err)
	}
	expectOutput(t, out, "expired 0 game(s)")
}

func expectOutput(t *testing.T, out *bytes.Buffer, want string) {
	t.Helper()
	if !strings.Contains(out.String(), want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, out.String())
	}
}
