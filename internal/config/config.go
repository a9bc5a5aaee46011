package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/tatianab/cyber-clicker/internal/store"
)

// Config holds the application configuration.
type Config struct {
	SaveDir      string
	Store        string
	DBPath       string
	GameID       string
	SaveInterval time.Duration
	TickInterval time.Duration
	LogLevel     zapcore.Level
	LogFile      string
	GeminiAPIKey string // optional; enables generated lessons
}

const (
	envSaveDir      = "CLICKER_SAVE_DIR"
	envStore        = "CLICKER_STORE"
	envDBPath       = "CLICKER_DB_PATH"
	envGameID       = "CLICKER_GAME_ID"
	envSaveInterval = "CLICKER_SAVE_INTERVAL"
	envTickInterval = "CLICKER_TICK_INTERVAL"
	envLogLevel     = "CLICKER_LOG_LEVEL"
	envLogFile      = "CLICKER_LOG_FILE"
	envGeminiAPIKey = "GEMINI_API_KEY"
)

// LoadConfig loads the configuration from a .env file, if present, and the
// environment. Variables already set in the environment win over .env.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(k, def string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		SaveDir:      get(envSaveDir, ".saves"),
		Store:        get(envStore, store.BackendFile),
		GameID:       get(envGameID, "default"),
		GeminiAPIKey: getenv(envGeminiAPIKey),
	}
	cfg.DBPath = get(envDBPath, filepath.Join(cfg.SaveDir, "clicker.db"))
	cfg.LogFile = get(envLogFile, filepath.Join(cfg.SaveDir, "clicker.log"))

	switch cfg.Store {
	case store.BackendFile, store.BackendSQLite, store.BackendMemory:
	default:
		return nil, fmt.Errorf("%s: unknown store %q (want file, sqlite or memory)", envStore, cfg.Store)
	}

	var err error
	if cfg.SaveInterval, err = duration(envSaveInterval, get(envSaveInterval, "1s"), true); err != nil {
		return nil, err
	}
	if cfg.TickInterval, err = duration(envTickInterval, get(envTickInterval, "1s"), false); err != nil {
		return nil, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(get(envLogLevel, "info"))); err != nil {
		return nil, fmt.Errorf("%s: %w", envLogLevel, err)
	}
	return cfg, nil
}

func duration(name, v string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("%s: must be positive, got %s", name, v)
	}
	return d, nil
}

// StoreOptions maps the config onto the store backend options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend: c.Store,
		Dir:     c.SaveDir,
		DBPath:  c.DBPath,
	}
}
