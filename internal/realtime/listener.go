package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	NotifyChannel    = "game_changes"
	reconnectBackoff = 3 * time.Second
)

// PGListener relays pg_notify payloads from the game_changes channel into a Broker.
type PGListener struct {
	dsn    string
	broker *Broker
}

func NewPGListener(dsn string, broker *Broker) *PGListener {
	return &PGListener{dsn: dsn, broker: broker}
}

// Run blocks until ctx is cancelled, reconnecting after connection failures.
func (l *PGListener) Run(ctx context.Context) {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Printf("realtime listener disconnected error=%v retry_in=%s", err, reconnectBackoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (l *PGListener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
		return err
	}
	log.Printf("realtime listener connected channel=%s", NotifyChannel)
	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		change, err := DecodeChange([]byte(notification.Payload))
		if err != nil {
			log.Printf("realtime payload rejected error=%v", err)
			continue
		}
		l.broker.Publish(change)
	}
}

func DecodeChange(payload []byte) (Change, error) {
	var change Change
	if err := json.Unmarshal(payload, &change); err != nil {
		return Change{}, err
	}
	return change, nil
}
