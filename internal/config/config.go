package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/tutorly/internal/llm"
)

// Config is the process-wide configuration assembled from the environment.
type Config struct {
	// DBPath is empty when TUTORLY_DB is unset; callers fall back to
	// store.DefaultDBPath.
	DBPath string

	LogMode      string
	LogLevel     string
	LogRedaction bool
	LogHashSalt  string

	HTTPAddr  string
	RedisAddr string

	// Location decides where calendar days start for streaks.
	Location *time.Location

	XPPerExchange   int
	ConflictRetries int

	LLM llm.Config
	// LLMConfigured is false when neither TUTORLY_LLM_PROVIDER nor any
	// well-known API key variable was found.
	LLMConfigured bool
}

const (
	DefaultHTTPAddr        = ":8080"
	DefaultXPPerExchange   = 10
	DefaultConflictRetries = 3
)

// Load reads envFile (or ./.env when empty) into the process environment
// and builds a Config. A missing default .env is not an error; a missing
// explicit file is.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		DBPath:       os.Getenv("TUTORLY_DB"),
		LogMode:      getenvDefault("TUTORLY_LOG_MODE", "dev"),
		LogLevel:     getenvDefault("TUTORLY_LOG_LEVEL", "info"),
		LogRedaction: getenvBool("LOG_REDACTION_ENABLED", true),
		LogHashSalt:  strings.TrimSpace(os.Getenv("LOG_HASH_SALT")),
		HTTPAddr:     getenvDefault("TUTORLY_HTTP_ADDR", DefaultHTTPAddr),
		RedisAddr:    os.Getenv("TUTORLY_REDIS_ADDR"),
		Location:     time.Local,
	}

	if tz := os.Getenv("TUTORLY_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return Config{}, fmt.Errorf("TUTORLY_TIMEZONE=%q: %w", tz, err)
		}
		cfg.Location = loc
	}

	var err error
	if cfg.XPPerExchange, err = getenvInt("TUTORLY_XP_PER_EXCHANGE", DefaultXPPerExchange); err != nil {
		return Config{}, err
	}
	if cfg.XPPerExchange < 0 {
		return Config{}, fmt.Errorf("TUTORLY_XP_PER_EXCHANGE must not be negative")
	}
	if cfg.ConflictRetries, err = getenvInt("TUTORLY_CONFLICT_RETRIES", DefaultConflictRetries); err != nil {
		return Config{}, err
	}
	if cfg.ConflictRetries < 0 {
		return Config{}, fmt.Errorf("TUTORLY_CONFLICT_RETRIES must not be negative")
	}

	// Explicit provider selection wins; otherwise probe the standard
	// *_API_KEY variables.
	if os.Getenv("TUTORLY_LLM_PROVIDER") != "" {
		cfg.LLM = llm.ConfigFromEnv()
		cfg.LLMConfigured = true
	} else if discovered, ok := llm.DiscoverConfig(); ok {
		cfg.LLM = discovered
		cfg.LLMConfigured = true
	} else {
		cfg.LLM = llm.DefaultConfig()
	}

	return cfg, nil
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getenvInt(k string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an integer", k, v)
	}
	return n, nil
}

func getenvBool(k string, fallback bool) bool {
	switch strings.TrimSpace(strings.ToLower(os.Getenv(k))) {
	case "":
		return fallback
	case "0", "false", "no", "off":
		return false
	default:
		return true
	}
}
