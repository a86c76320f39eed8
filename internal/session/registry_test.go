package session

import (
	"context"
	"testing"
	"time"

	"baby-name-game/internal/backend"
)

func TestRegistryReplaceAndSweep(t *testing.T) {
	store := backend.NewMemory(nil)
	game := newActiveGame(t, store, "Emma", "one")
	now := newFakeNow(gameDay)
	registry := NewRegistry()
	key := Key{BrowserID: "browser-1", Code: game.Code}

	old := newPlayingSession(t, store, now, game.Code, "Alex")
	registry.Put(key, old)
	replacement := New(store, Options{Now: now.Now})
	registry.Put(key, replacement)
	if got, _ := registry.Get(key); got != replacement {
		t.Fatalf("expected replacement session")
	}
	if old.clock.Running() {
		t.Fatalf("expected replaced session to be closed")
	}

	other := Key{BrowserID: "browser-2", Code: game.Code}
	registry.Put(other, newPlayingSession(t, store, now, game.Code, "Sam"))
	if found, ok := registry.FindPlayer(old.PlayerID()); ok {
		t.Fatalf("did not expect to find replaced player, got %v", found)
	}

	now.Advance(30 * time.Minute)
	replacement.Load(context.Background(), game.Code)
	removed := registry.Sweep(10*time.Minute, now.Now())
	if removed != 1 || registry.Len() != 1 {
		t.Fatalf("expected one stale session swept, removed=%d len=%d", removed, registry.Len())
	}
	if _, ok := registry.Get(other); ok {
		t.Fatalf("expected idle session removed")
	}
}
