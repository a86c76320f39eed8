package main

import (
	"flag"
	"log"
	"os"

	"baby-name-game/internal/config"
	"baby-name-game/internal/db"
)

func main() {
	down := flag.Bool("down", false, "roll migrations back instead of applying them")
	steps := flag.Int("steps", 1, "number of migrations to roll back with -down (0 rolls back all)")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	dsn := mustDatabaseURL()

	if *down {
		if err := db.MigrateDown(dsn, *steps); err != nil {
			log.Fatalf("database rollback failed: %v", err)
		}
		log.Printf("database rollback applied steps=%d", *steps)
		return
	}
	if err := db.MigrateUp(dsn); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
}

func mustDatabaseURL() string {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	return dsn
}
