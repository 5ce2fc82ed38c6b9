package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/platform-eight/commute-engine/pkg/game"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level
	RedisURL    string
	DataDir     string
	FailMode    game.FailMode
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),
		DataDir:     getEnv("DATA_DIR", "./data"),
	}

	switch mode := strings.ToLower(getEnv("FAIL_MODE", "retry")); mode {
	case "retry":
		cfg.FailMode = game.FailModeRetry
	case "hard":
		cfg.FailMode = game.FailModeHard
	default:
		return nil, fmt.Errorf("invalid FAIL_MODE %q (supported: retry, hard)", mode)
	}

	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
