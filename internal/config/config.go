package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store backends.
const (
	StoreFile    = "file"
	StoreSurreal = "surreal"
	StoreMemory  = "memory"
)

// Config holds all configuration values.
type Config struct {
	// API
	BaseURL       string
	ClientTimeout time.Duration
	CSRFCookie    string

	// Local state store
	Store       string
	StorePath   string
	StorePrefix string

	// SurrealDB connection (Store == "surreal")
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Pending-message polling
	PollInterval    time.Duration
	PollMaxDuration time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		BaseURL:       getEnv("MOODON_BASE_URL", "http://localhost:8000"),
		ClientTimeout: getDuration("MOODON_CLIENT_TIMEOUT", 60*time.Second),
		CSRFCookie:    getEnv("MOODON_CSRF_COOKIE", "csrftoken"),

		Store:       strings.ToLower(getEnv("MOODON_STORE", StoreFile)),
		StorePath:   getEnv("MOODON_STORE_PATH", defaultStorePath()),
		StorePrefix: getEnv("MOODON_STORE_PREFIX", "moodon:"),

		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "moodon"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "client"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		PollInterval:    getDuration("MOODON_POLL_INTERVAL", 3*time.Second),
		PollMaxDuration: getDuration("MOODON_POLL_MAX", 3*time.Minute),

		LogFile:  getEnv("MOODON_LOG_FILE", filepath.Join(os.TempDir(), "moodon.log")),
		LogLevel: parseLogLevel(getEnv("MOODON_LOG_LEVEL", "INFO")),
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "moodon", "state.json")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getDuration accepts Go durations ("3s") or bare seconds ("3").
func getDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}
	if d, err := time.ParseDuration(val + "s"); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
