package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPublishRoutesToGameAndPlayerTopics(t *testing.T) {
	broker := NewBroker()
	gameID := uuid.New()
	playerID := uuid.New()
	gameSub := broker.Subscribe(GameTopic(gameID))
	defer gameSub.Close()
	playerSub := broker.Subscribe(PlayerTopic(playerID))
	defer playerSub.Close()

	broker.Publish(Change{Table: TablePlayerGuesses, Op: OpInsert, GameID: gameID, PlayerID: playerID})
	broker.Publish(Change{Table: TablePlayers, Op: OpUpdate, GameID: gameID, PlayerID: playerID})

	for i := 0; i < 2; i++ {
		select {
		case <-gameSub.C:
		case <-time.After(time.Second):
			t.Fatalf("expected game change %d", i)
		}
	}
	select {
	case change := <-playerSub.C:
		if change.Table != TablePlayers {
			t.Fatalf("expected player row update, got %s", change.Table)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected player change")
	}
	select {
	case change := <-playerSub.C:
		t.Fatalf("unexpected extra player change: %+v", change)
	default:
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	broker := NewBroker()
	gameID := uuid.New()
	sub := broker.Subscribe(GameTopic(gameID))
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			broker.Publish(Change{Table: TablePlayers, Op: OpInsert, GameID: gameID})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publisher blocked on a full subscriber")
	}
	if len(sub.C) != subscriberBuffer {
		t.Fatalf("expected buffer to be full, got %d", len(sub.C))
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	broker := NewBroker()
	topic := GameTopic(uuid.New())
	sub := broker.Subscribe(topic)
	sub.Close()
	sub.Close()
	if broker.Subscribers(topic) != 0 {
		t.Fatalf("expected no subscribers after close")
	}
	if _, ok := <-sub.C; ok {
		t.Fatalf("expected closed channel")
	}
	broker.Publish(Change{GameID: uuid.Nil})
}

func TestDecodeChange(t *testing.T) {
	payload := `{"table":"players","op":"UPDATE","game_id":"7b0c1a52-4f3e-4d55-9c59-0c2f7ac1e001","player_id":"7b0c1a52-4f3e-4d55-9c59-0c2f7ac1e002","record":{"clues_revealed":2}}`
	change, err := DecodeChange([]byte(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if change.Op != OpUpdate || change.GameID.String() != "7b0c1a52-4f3e-4d55-9c59-0c2f7ac1e001" {
		t.Fatalf("unexpected change: %+v", change)
	}
	if string(change.Record) != `{"clues_revealed":2}` {
		t.Fatalf("unexpected record: %s", change.Record)
	}
	if _, err := DecodeChange([]byte("not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}
