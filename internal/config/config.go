package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	GitHubToken     string
	GreptileAPIKey  string
	GreptileBaseURL string
	DefaultBranch   string
	DatabaseURL     string
	HTTPPort        string
	LogLevel        string
}

// Load reads .env (if present) and the environment and returns an explicit
// Config. Callers pass it down by reference; there is no package-level copy.
func Load() (*Config, error) {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		GitHubToken:     getEnv("GITHUB_TOKEN", ""),
		GreptileAPIKey:  getEnv("GREPTILE_API_KEY", ""),
		GreptileBaseURL: getEnv("GREPTILE_BASE_URL", "https://api.greptile.com/v2"),
		DefaultBranch:   getEnv("DEFAULT_BRANCH", "main"),
		DatabaseURL:     getEnv("DATABASE_URL", "changelogs.db"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
	}

	if cfg.GitHubToken == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is required")
	}

	if cfg.GreptileAPIKey == "" {
		return nil, fmt.Errorf("GREPTILE_API_KEY environment variable is required")
	}

	return cfg, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
