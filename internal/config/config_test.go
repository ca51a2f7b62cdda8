package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderOpenRouter {
		t.Errorf("provider = %s", cfg.Provider)
	}
	if cfg.Model == "" || cfg.ListenAddr != ":8080" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Errorf("timeout = %s", cfg.RequestTimeout)
	}
}

func TestLoadMissingKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("CARSAGE_PROVIDER", "openrouter")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestLoadGeminiProvider(t *testing.T) {
	t.Setenv("CARSAGE_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-test")
	t.Setenv("CARSAGE_RPM", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderGemini || cfg.APIKey != "g-test" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.RequestsPerMinute != 5 {
		t.Errorf("rpm = %d", cfg.RequestsPerMinute)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("CARSAGE_PROVIDER", "ollama")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
