package config

import (
	"fmt"
	"os"
)

// Provider names accepted in AI_PROVIDER.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config holds the configuration for the application.
type Config struct {
	// Provider selects which completion binding to use at startup.
	Provider        string
	AnthropicAPIKey string
	OpenAIAPIKey    string

	// Base URL overrides, mainly for tests. Empty means the provider default.
	AnthropicBaseURL string
	OpenAIBaseURL    string

	DatabasePath     string
	LocalHistoryPath string

	// JWTSecret verifies bearer tokens. Empty disables identity resolution:
	// every request is treated as anonymous and history stays local-only.
	JWTSecret string

	Port string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	provider := os.Getenv("AI_PROVIDER")
	if provider == "" {
		provider = ProviderAnthropic
	}
	if provider != ProviderAnthropic && provider != ProviderOpenAI {
		return nil, fmt.Errorf("AI_PROVIDER must be %q or %q, got %q", ProviderAnthropic, ProviderOpenAI, provider)
	}

	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	openaiKey := os.Getenv("OPENAI_API_KEY")

	if provider == ProviderAnthropic && anthropicKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}
	if provider == ProviderOpenAI && openaiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "data/eco-menu.db"
	}

	localHistoryPath := os.Getenv("LOCAL_HISTORY_PATH")
	if localHistoryPath == "" {
		localHistoryPath = "data/history"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		Provider:         provider,
		AnthropicAPIKey:  anthropicKey,
		OpenAIAPIKey:     openaiKey,
		AnthropicBaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		DatabasePath:     dbPath,
		LocalHistoryPath: localHistoryPath,
		JWTSecret:        os.Getenv("JWT_SECRET"),
		Port:             port,
	}, nil
}
