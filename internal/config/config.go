package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port          string
	DBPath        string
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   []string
	MigrationsDir string

	// Timer engine.
	TickInterval time.Duration
	// MinSession is the floor applied to effective durations of a cancelled
	// session before it is persisted. Zero disables the floor.
	MinSession time.Duration

	// Blocking detector.
	BlockCooldown time.Duration

	// Foreground watcher. ForegroundCmd is a command printing the current
	// foreground application identifier; empty disables polling (events can
	// still be pushed over the API).
	ForegroundCmd  string
	PollInterval   time.Duration
	AppCatalogPath string
}

func Load() Config {
	return Config{
		Port:           getEnv("PORT", "8080"),
		DBPath:         getEnv("DB_PATH", "./data/focusd.db"),
		JWTSecret:      getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:       time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "./migrations"),
		TickInterval:   getEnvSeconds("TICK_INTERVAL_SECONDS", time.Second),
		MinSession:     getEnvSeconds("MIN_SESSION_SECONDS", 0),
		BlockCooldown:  getEnvSeconds("BLOCK_COOLDOWN_SECONDS", 2*time.Second),
		ForegroundCmd:  getEnv("FOREGROUND_CMD", ""),
		PollInterval:   getEnvSeconds("POLL_INTERVAL_SECONDS", time.Second),
		AppCatalogPath: getEnv("APP_CATALOG_PATH", "./data/apps.yaml"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return time.Duration(parsed) * time.Second
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
