package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/oops"
)

type Config struct {
	Port      string
	JwtSecret string
	DbURL     string

	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	BcryptCost           int
	LockoutThreshold     int
	LockoutDuration      time.Duration
	CookieName           string
	CookieSecure         bool
	LogLevel             string
	LogFormat            string
}

// Load reads the configuration from a .env file or environment variables and returns a Config struct.
// It returns an error if any required variable is missing or an optional one does not parse.
func Load() (*Config, error) {
	// Try to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	jwtSecret := os.Getenv("JWT_SECRET")
	dbURL := os.Getenv("DATABASE_URL")

	if port == "" || jwtSecret == "" || dbURL == "" {
		return nil, oops.Code("CONFIG_MISSING").
			With("port_set", port != "").
			With("jwt_secret_set", jwtSecret != "").
			With("database_url_set", dbURL != "").
			Errorf("missing required environment variables: PORT, JWT_SECRET and DATABASE_URL must be set")
	}

	cfg := &Config{
		Port:       port,
		JwtSecret:  jwtSecret,
		DbURL:      dbURL,
		CookieName: envOr("COOKIE_NAME", "session"),
		LogLevel:   envOr("LOG_LEVEL", "info"),
		LogFormat:  envOr("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.SessionTTL, err = duration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = duration("SESSION_SWEEP_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = integer("BCRYPT_COST", 12); err != nil {
		return nil, err
	}
	if cfg.LockoutThreshold, err = integer("LOCKOUT_THRESHOLD", 5); err != nil {
		return nil, err
	}
	if cfg.LockoutDuration, err = duration("LOCKOUT_DURATION", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CookieSecure, err = boolean("COOKIE_SECURE", false); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, oops.Code("CONFIG_INVALID").With("key", key).With("value", v).
			Errorf("%s must be a positive duration", key)
	}
	return d, nil
}

func integer(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, oops.Code("CONFIG_INVALID").With("key", key).With("value", v).
			Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

func boolean(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, oops.Code("CONFIG_INVALID").With("key", key).With("value", v).
			Errorf("%s must be a boolean", key)
	}
	return b, nil
}
