package backend

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIsGameActiveBoundaries(t *testing.T) {
	game := &Game{
		Status:    StatusActive,
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before start", time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC), false},
		{"exactly start", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"mid window", time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC), true},
		{"exactly end", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), true},
		{"late on end day", time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC), true},
		{"day after end", time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := IsGameActive(game, tc.now); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}

	for _, status := range []string{StatusDraft, StatusCompleted, StatusExpired} {
		game.Status = status
		if IsGameActive(game, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("expected %s game to be inactive", status)
		}
	}
	if IsGameActive(nil, time.Now()) {
		t.Fatalf("expected nil game to be inactive")
	}
}

func TestIsValidGameCode(t *testing.T) {
	valid := []string{"ABCD", "abc234", " XYZ9 ", "ABCDEFGHJK"}
	for _, code := range valid {
		if !IsValidGameCode(code) {
			t.Fatalf("expected %q to be valid", code)
		}
	}
	invalid := []string{"", "ABC", "ABCDEFGHJKL", "AB-CD", "AB CD"}
	for _, code := range invalid {
		if IsValidGameCode(code) {
			t.Fatalf("expected %q to be invalid", code)
		}
	}
}

func TestNewGameCodeAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := newGameCode()
		if len(code) != 6 {
			t.Fatalf("expected 6 characters, got %q", code)
		}
		for _, r := range code {
			if r == 'I' || r == 'O' || r == '0' || r == '1' {
				t.Fatalf("ambiguous character in %q", code)
			}
		}
		if !IsValidGameCode(code) {
			t.Fatalf("generated code %q is not joinable", code)
		}
	}
}

func TestRankLeaderboard(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	seconds := func(v int) *int { return &v }
	at := func(offset time.Duration) *time.Time { v := base.Add(offset); return &v }
	entries := []LeaderboardEntry{
		{PlayerID: uuid.New(), PlayerName: "Zed"},
		{PlayerID: uuid.New(), PlayerName: "Slow", HasWon: true, FinalTimeSeconds: seconds(300), CluesRevealed: 1, WonAt: at(0)},
		{PlayerID: uuid.New(), PlayerName: "Fast", HasWon: true, FinalTimeSeconds: seconds(60), CluesRevealed: 3, WonAt: at(time.Hour)},
		{PlayerID: uuid.New(), PlayerName: "Tie-late", HasWon: true, FinalTimeSeconds: seconds(60), CluesRevealed: 3, WonAt: at(2 * time.Hour)},
		{PlayerID: uuid.New(), PlayerName: "Amy"},
	}
	ranked := RankLeaderboard(entries)
	order := []string{"Fast", "Tie-late", "Slow", "Amy", "Zed"}
	for i, name := range order {
		if ranked[i].PlayerName != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, ranked[i].PlayerName)
		}
	}
	for i := 0; i < 3; i++ {
		if ranked[i].Rank == nil || *ranked[i].Rank != i+1 {
			t.Fatalf("expected rank %d for %s", i+1, ranked[i].PlayerName)
		}
	}
	if ranked[3].Rank != nil || ranked[4].Rank != nil {
		t.Fatalf("expected non-winners to be unranked")
	}
}
