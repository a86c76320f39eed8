package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port                     string
	BaseURL                  string
	DatabaseURL              string
	DatabaseDriver           string
	AuthSecret               string
	GoogleClientID           string
	GoogleClientSecret       string
	CORSOrigins              []string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
	AutoMigrate              bool
	RealtimeListen           bool
	SessionIdleMinutes       int
	SummaryDelayMS           int
	ExpireIntervalSeconds    int
}

func Default() Config {
	return Config{
		Port:                     "8080",
		DatabaseDriver:           DriverPostgres,
		CORSOrigins:              []string{"*"},
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		RealtimeListen:           true,
		SessionIdleMinutes:       120,
		SummaryDelayMS:           1200,
		ExpireIntervalSeconds:    300,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("BASE_URL"); raw != "" {
		cfg.BaseURL = strings.TrimRight(raw, "/")
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if raw := os.Getenv("DATABASE_DRIVER"); raw != "" {
		cfg.DatabaseDriver = strings.ToLower(raw)
	}
	cfg.AuthSecret = os.Getenv("AUTH_SECRET")
	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		var origins []string
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		if len(origins) > 0 {
			cfg.CORSOrigins = origins
		}
	}
	positiveInt("DB_MAX_OPEN_CONNS", &cfg.DBMaxOpenConns)
	positiveInt("DB_MAX_IDLE_CONNS", &cfg.DBMaxIdleConns)
	positiveInt("DB_CONN_MAX_LIFETIME_SECONDS", &cfg.DBConnMaxLifetimeSeconds)
	positiveInt("DB_CONN_MAX_IDLE_SECONDS", &cfg.DBConnMaxIdleTimeSeconds)
	positiveInt("SESSION_IDLE_MINUTES", &cfg.SessionIdleMinutes)
	positiveInt("SUMMARY_DELAY_MS", &cfg.SummaryDelayMS)
	positiveInt("EXPIRE_INTERVAL_SECONDS", &cfg.ExpireIntervalSeconds)
	if raw := os.Getenv("AUTO_MIGRATE"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.AutoMigrate = value
		}
	}
	if raw := os.Getenv("REALTIME_LISTEN"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.RealtimeListen = value
		}
	}
	return cfg
}

// Validate reports missing settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseDriver != DriverPostgres && c.DatabaseDriver != DriverMemory {
		errs = append(errs, errors.New("DATABASE_DRIVER must be postgres or memory"))
	}
	if c.DatabaseDriver == DriverPostgres && c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.AuthSecret == "" {
		errs = append(errs, errors.New("AUTH_SECRET is not set"))
	}
	return errors.Join(errs...)
}

func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c Config) SummaryDelay() time.Duration {
	return time.Duration(c.SummaryDelayMS) * time.Millisecond
}

func (c Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

func positiveInt(key string, target *int) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	if value, err := strconv.Atoi(raw); err == nil && value > 0 {
		*target = value
	}
}
