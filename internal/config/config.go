package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds the environment settings of the tool.
type Config struct {
	LogLevel        string `env:"LOG_LEVEL" env-default:"info" env-description:"zerolog level"`
	LogFormat       string `env:"LOG_FORMAT" env-default:"console" env-description:"console or json"`
	WorkerCount     int    `env:"WORKER_COUNT" env-default:"4" env-description:"concurrent parse jobs in run"`
	InsertBatchSize int    `env:"INSERT_BATCH_SIZE" env-default:"100" env-description:"rows per INSERT statement"`
	JournalLimit    int    `env:"JOURNAL_LIMIT" env-default:"20" env-description:"default history length"`
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.InsertBatchSize < 1 {
		return nil, fmt.Errorf("INSERT_BATCH_SIZE must be positive, got %d", cfg.InsertBatchSize)
	}
	return &cfg, nil
}

// Usage describes the environment variables read by Load.
func Usage() (string, error) {
	var cfg Config
	return cleanenv.GetDescription(&cfg, nil)
}
