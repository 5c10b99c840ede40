package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration. It is constructed once in main
// and passed down explicitly; there is no process-wide instance.
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP server
	ListenAddr  string
	MetricsAddr string
	JWTSecret   string

	// Ledger configuration
	StartingBalance int64

	// AI configuration
	GeminiAPIKey string
	GeminiModel  string

	// Environment: "development", "production" or "test"
	Environment string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ListenAddr:  os.Getenv("LISTEN_ADDR"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		StartingBalance: 500,

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  os.Getenv("GEMINI_MODEL"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		parsed, err := strconv.ParseInt(balance, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("invalid STARTING_BALANCE %q", balance)
		}
		cfg.StartingBalance = parsed
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9090"
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-2.0-flash"
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Environment != "test" {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	}

	return cfg, nil
}
