package app

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer    string // Issuer claim for session tokens (default: tellerauth)
	JWTSecret string // Required: HMAC secret for signing session tokens

	DatabaseFile string // Optional: path to SQLite database file (default: ./auth.db)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	MailRelayURL     string        // Optional: base URL of the mail relay; empty logs mail instead
	MailRelayTimeout time.Duration // Optional: per-request relay timeout (default: 10s)
	MailRetries      int           // Optional: resend attempts on relay failure (default: 2)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

// ErrMissingJWTSecret is returned when AUTH_JWT_SECRET is unset. The service
// refuses to start rather than fall back to a guessable signing key.
var ErrMissingJWTSecret = errors.New("AUTH_JWT_SECRET must be set")

func LoadConfig() (Config, error) {
	cfg := Config{
		Issuer:               getEnvOrDefault("AUTH_ISSUER", "tellerauth"),
		JWTSecret:            os.Getenv("AUTH_JWT_SECRET"),
		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:           getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		MailRelayURL:         os.Getenv("MAIL_RELAY_URL"),
		MailRelayTimeout:     getEnvDurationOrDefault("MAIL_RELAY_TIMEOUT", 10*time.Second),
		MailRetries:          getEnvIntOrDefault("MAIL_RETRIES", 2),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingJWTSecret
	}

	return cfg, nil
}

// DevMode reports whether the service runs without TLS expectations.
func (c Config) DevMode() bool {
	return c.Env == "dev"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
