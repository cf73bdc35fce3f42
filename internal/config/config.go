package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// AppConfig holds runtime settings read from the environment.
type AppConfig struct {
	Port             string
	DatabasePath     string
	StoreBackend     string
	LogLevel         string
	LogPretty        bool
	MaxMessageLength int
	DedupCacheTTL    time.Duration
	DefaultListLimit int
}

// Load reads an optional .env file and then the process environment. Invalid
// values fall back to defaults; each fallback is reported on log.
func Load(log zerolog.Logger) *AppConfig {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded, using environment and defaults")
	}

	l := loader{log: log}
	cfg := &AppConfig{
		Port:             l.str("PORT", "8080"),
		DatabasePath:     l.str("DATABASE_PATH", "./expenses.db"),
		StoreBackend:     strings.ToLower(l.str("STORE_BACKEND", BackendSQLite)),
		LogLevel:         l.str("LOG_LEVEL", "info"),
		LogPretty:        l.boolean("LOG_PRETTY", false),
		MaxMessageLength: l.integer("MAX_MESSAGE_LENGTH", 2000),
		DedupCacheTTL:    l.duration("DEDUP_CACHE_TTL", 10*time.Minute),
		DefaultListLimit: l.integer("DEFAULT_LIST_LIMIT", 100),
	}

	if cfg.StoreBackend != BackendSQLite && cfg.StoreBackend != BackendMemory {
		log.Warn().Str("backend", cfg.StoreBackend).Msg("unknown STORE_BACKEND, using sqlite")
		cfg.StoreBackend = BackendSQLite
	}
	if cfg.MaxMessageLength <= 0 {
		log.Warn().Int("value", cfg.MaxMessageLength).Msg("MAX_MESSAGE_LENGTH must be positive, using 2000")
		cfg.MaxMessageLength = 2000
	}
	if cfg.DefaultListLimit <= 0 {
		cfg.DefaultListLimit = 100
	}
	return cfg
}

type loader struct {
	log zerolog.Logger
}

func (l loader) str(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func (l loader) integer(key string, fallback int) int {
	raw := l.str(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		l.log.Warn().Str("key", key).Str("value", raw).Int("default", fallback).Msg("invalid integer, using default")
		return fallback
	}
	return v
}

func (l loader) boolean(key string, fallback bool) bool {
	raw := l.str(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		l.log.Warn().Str("key", key).Str("value", raw).Bool("default", fallback).Msg("invalid boolean, using default")
		return fallback
	}
	return v
}

func (l loader) duration(key string, fallback time.Duration) time.Duration {
	raw := l.str(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		l.log.Warn().Str("key", key).Str("value", raw).Dur("default", fallback).Msg("invalid duration, using default")
		return fallback
	}
	return v
}
