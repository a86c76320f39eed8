package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"baby-name-game/internal/backend"
	"baby-name-game/internal/config"
	"baby-name-game/internal/db"
	"baby-name-game/internal/realtime"
)

// Backend bundles the storage service with the broker that fans out its changes.
type Backend struct {
	Service backend.Service
	Broker  *realtime.Broker

	listener *realtime.PGListener
	close    func() error
}

// Open builds the configured backend. With Postgres it optionally migrates first and,
// when RealtimeListen is set, leaves change publishing to the LISTEN bridge.
func Open(cfg config.Config) (*Backend, error) {
	broker := realtime.NewBroker()
	if cfg.DatabaseDriver == config.DriverMemory {
		log.Printf("backend ready driver=memory")
		return &Backend{
			Service: backend.NewMemory(broker),
			Broker:  broker,
			close:   func() error { return nil },
		}, nil
	}

	if cfg.AutoMigrate {
		if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	conn, err := db.Open(cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.DBConnMaxIdleTimeSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	b := &Backend{
		Service: backend.NewPostgres(conn, broker, !cfg.RealtimeListen),
		Broker:  broker,
		close:   sqlDB.Close,
	}
	if cfg.RealtimeListen {
		b.listener = realtime.NewPGListener(cfg.DatabaseURL, broker)
	}
	log.Printf("backend ready driver=postgres realtime_listen=%t", cfg.RealtimeListen)
	return b, nil
}

// Run keeps the change bridge connected until ctx ends. It returns at once when there is no bridge.
func (b *Backend) Run(ctx context.Context) {
	if b.listener == nil {
		return
	}
	b.listener.Run(ctx)
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}
