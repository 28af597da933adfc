package config

import (
	"os"
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("DefaultsToAnthropic", func(t *testing.T) {
		os.Unsetenv("AI_PROVIDER")
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.Provider != ProviderAnthropic {
			t.Errorf("Expected provider %q, got %q", ProviderAnthropic, cfg.Provider)
		}
		if cfg.AnthropicAPIKey != "sk-ant-test" {
			t.Errorf("Expected AnthropicAPIKey to be 'sk-ant-test', got '%s'", cfg.AnthropicAPIKey)
		}
		if cfg.DatabasePath != "data/eco-menu.db" {
			t.Errorf("Expected default DatabasePath, got '%s'", cfg.DatabasePath)
		}
		if cfg.Port != "8080" {
			t.Errorf("Expected default port 8080, got '%s'", cfg.Port)
		}
	})

	t.Run("OpenAIProvider", func(t *testing.T) {
		t.Setenv("AI_PROVIDER", "openai")
		t.Setenv("OPENAI_API_KEY", "sk-test")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.Provider != ProviderOpenAI {
			t.Errorf("Expected provider %q, got %q", ProviderOpenAI, cfg.Provider)
		}
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		t.Setenv("AI_PROVIDER", "bard")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for unknown provider, got nil")
		}
	})

	t.Run("MissingAnthropicKey", func(t *testing.T) {
		t.Setenv("AI_PROVIDER", "anthropic")
		os.Unsetenv("ANTHROPIC_API_KEY")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing ANTHROPIC_API_KEY, got nil")
		}
		expectedError := "ANTHROPIC_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("MissingOpenAIKey", func(t *testing.T) {
		t.Setenv("AI_PROVIDER", "openai")
		os.Unsetenv("OPENAI_API_KEY")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing OPENAI_API_KEY, got nil")
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("AI_PROVIDER", "openai")
		t.Setenv("OPENAI_API_KEY", "sk-test")
		t.Setenv("OPENAI_BASE_URL", "http://localhost:9999")
		t.Setenv("DATABASE_PATH", "/tmp/test.db")
		t.Setenv("PORT", "9090")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.OpenAIBaseURL != "http://localhost:9999" {
			t.Errorf("Expected base URL override, got '%s'", cfg.OpenAIBaseURL)
		}
		if cfg.DatabasePath != "/tmp/test.db" {
			t.Errorf("Expected DatabasePath override, got '%s'", cfg.DatabasePath)
		}
		if cfg.Port != "9090" {
			t.Errorf("Expected port 9090, got '%s'", cfg.Port)
		}
	})
}
