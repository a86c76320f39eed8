package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

const (
	TablePlayers       = "players"
	TablePlayerGuesses = "player_guesses"

	OpInsert = "INSERT"
	OpUpdate = "UPDATE"

	subscriberBuffer = 32
)

// Change mirrors the payload the notify_game_change trigger emits.
type Change struct {
	Table    string          `json:"table"`
	Op       string          `json:"op"`
	GameID   uuid.UUID       `json:"game_id"`
	PlayerID uuid.UUID       `json:"player_id"`
	Record   json.RawMessage `json:"record,omitempty"`
}

func GameTopic(gameID uuid.UUID) string {
	return "game:" + gameID.String()
}

func PlayerTopic(playerID uuid.UUID) string {
	return "player:" + playerID.String()
}

type Broker struct {
	mu     sync.Mutex
	topics map[string]map[*Subscription]struct{}
}

func NewBroker() *Broker {
	return &Broker{topics: make(map[string]map[*Subscription]struct{})}
}

type Subscription struct {
	C chan Change

	broker *Broker
	topic  string
	once   sync.Once
}

func (b *Broker) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		C:      make(chan Change, subscriberBuffer),
		broker: b,
		topic:  topic,
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		b.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

// Close detaches the subscription and closes its channel. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		b := s.broker
		b.mu.Lock()
		if subs, ok := b.topics[s.topic]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(b.topics, s.topic)
			}
		}
		close(s.C)
		b.mu.Unlock()
	})
}

// Publish fans a change out to the game topic and, for player rows, the player topic.
func (b *Broker) Publish(change Change) {
	b.deliver(GameTopic(change.GameID), change)
	if change.Table == TablePlayers && change.Op == OpUpdate {
		b.deliver(PlayerTopic(change.PlayerID), change)
	}
}

func (b *Broker) deliver(topic string, change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.topics[topic] {
		select {
		case sub.C <- change:
		default:
		}
	}
}

func (b *Broker) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}
