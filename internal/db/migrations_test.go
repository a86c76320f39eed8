package db

import (
	"io/fs"
	"strings"
	"testing"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := fs.Glob(migrationFiles, "migrations/*"+suffix)
	if err != nil || len(matches) == 0 {
		t.Fatalf("no %s migrations embedded: %v", suffix, err)
	}
	data, err := fs.ReadFile(migrationFiles, matches[0])
	if err != nil {
		t.Fatalf("read %s: %v", matches[0], err)
	}
	return string(data)
}

func TestMigrationsArePaired(t *testing.T) {
	ups, _ := fs.Glob(migrationFiles, "migrations/*.up.sql")
	downs, _ := fs.Glob(migrationFiles, "migrations/*.down.sql")
	if len(ups) == 0 || len(ups) != len(downs) {
		t.Fatalf("expected matching up/down migrations, got %d up and %d down", len(ups), len(downs))
	}
}

// Game windows are UTC calendar days, matching backend.IsGameActive.
func TestGameWindowUsesUTCDays(t *testing.T) {
	sql := readMigration(t, ".up.sql")
	for _, want := range []string{
		"at >= (g.start_date::timestamp AT TIME ZONE 'UTC')",
		"at < ((g.end_date + 1)::timestamp AT TIME ZONE 'UTC')",
		"((end_date + 1)::timestamp AT TIME ZONE 'UTC') <= at",
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("expected migration to contain %q", want)
		}
	}
	if strings.Contains(sql, "_date::timestamptz") || strings.Contains(sql, "+ 1)::timestamptz") {
		t.Fatalf("date columns must not be cast with the session time zone")
	}
}
