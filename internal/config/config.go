package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI     string
	OpenFDABaseURL  string
	AIAPIKey        string
	AIBaseURL       string
	AIModel         string
	ResolveInterval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	return &Config{
		DatabaseURI:     os.Getenv("DATABASE_URI"),
		OpenFDABaseURL:  getEnvOrDefault("OPENFDA_BASE_URL", "https://api.fda.gov"),
		AIAPIKey:        os.Getenv("AI_API_KEY"),
		AIBaseURL:       getEnvOrDefault("AI_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:         getEnvOrDefault("AI_MODEL", "openai/gpt-4o-mini"),
		ResolveInterval: time.Duration(getEnvIntOrDefault("RESOLVE_INTERVAL_MINUTES", 15)) * time.Minute,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
