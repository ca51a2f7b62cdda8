package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Provider selects which hosted model backend serves completions.
type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderGemini     Provider = "gemini"
)

type Config struct {
	Provider    Provider
	APIKey      string
	Model       string
	Temperature float64

	// RequestsPerMinute throttles outbound model calls. Zero disables
	// the limiter.
	RequestsPerMinute int
	RequestTimeout    time.Duration

	DatabasePath    string
	ListenAddr      string
	MaxLiveSessions int
}

// Load reads configuration from a .env file (if present) and the
// environment. Only the API key is mandatory.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg := &Config{
		Provider:          Provider(getEnv("CARSAGE_PROVIDER", string(ProviderOpenRouter))),
		Model:             getEnv("CARSAGE_MODEL", "deepseek/deepseek-chat"),
		Temperature:       getEnvFloat("CARSAGE_TEMPERATURE", 0.4),
		RequestsPerMinute: getEnvInt("CARSAGE_RPM", 20),
		RequestTimeout:    time.Duration(getEnvInt("CARSAGE_TIMEOUT_SECONDS", 60)) * time.Second,
		DatabasePath:      getEnv("CARSAGE_DB", "carsage.db"),
		ListenAddr:        getEnv("CARSAGE_ADDR", ":8080"),
		MaxLiveSessions:   getEnvInt("CARSAGE_MAX_SESSIONS", 256),
	}

	switch cfg.Provider {
	case ProviderOpenRouter:
		cfg.APIKey = os.Getenv("OPENROUTER_API_KEY")
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY is not set")
		}
	case ProviderGemini:
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set")
		}
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
