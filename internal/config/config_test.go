package config

import "testing"

func TestLoadKeepsDefaultsOnBadInput(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "nope")
	t.Setenv("SUMMARY_DELAY_MS", "-5")
	t.Setenv("AUTO_MIGRATE", "maybe")
	cfg := Load()
	defaults := Default()
	if cfg.DBMaxOpenConns != defaults.DBMaxOpenConns {
		t.Fatalf("expected default max open conns, got %d", cfg.DBMaxOpenConns)
	}
	if cfg.SummaryDelayMS != defaults.SummaryDelayMS {
		t.Fatalf("expected default summary delay, got %d", cfg.SummaryDelayMS)
	}
	if cfg.AutoMigrate {
		t.Fatalf("expected auto migrate to stay off")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("BASE_URL", "https://example.test/")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test,")
	t.Setenv("REALTIME_LISTEN", "false")
	t.Setenv("DATABASE_DRIVER", "MEMORY")
	cfg := Load()
	if cfg.Port != "9000" {
		t.Fatalf("expected port 9000, got %q", cfg.Port)
	}
	if cfg.BaseURL != "https://example.test" {
		t.Fatalf("expected trimmed base url, got %q", cfg.BaseURL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.test" {
		t.Fatalf("unexpected origins: %v", cfg.CORSOrigins)
	}
	if cfg.RealtimeListen {
		t.Fatalf("expected realtime listen disabled")
	}
	if cfg.DatabaseDriver != DriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.DatabaseDriver)
	}
}

func TestValidateRequiresBackendSettings(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing database url and secret")
	}
	cfg.DatabaseURL = "postgres://localhost/baby"
	cfg.AuthSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.DatabaseDriver = DriverMemory
	cfg.DatabaseURL = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("memory driver should not need a database url: %v", err)
	}
}
