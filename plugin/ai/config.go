package ai

import (
	"errors"
	"fmt"

	"github.com/kbdesk/kbdesk/internal/profile"
)

// Provider identifiers understood by the registry.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config represents AI configuration.
type Config struct {
	Enabled         bool
	DefaultProvider string

	Providers map[string]ProviderConfig
}

// ProviderConfig represents the configuration of a single model provider.
// Embedding dimensions differ per provider; vectors from different providers
// are never comparable and must not be mixed in one similarity computation.
type ProviderConfig struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
	Dimensions     int
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled:         p.AIEnabled,
		DefaultProvider: p.DefaultProvider,
		Providers:       map[string]ProviderConfig{},
	}

	if !cfg.Enabled {
		return cfg
	}

	if p.OpenAIAPIKey != "" {
		cfg.Providers[ProviderOpenAI] = ProviderConfig{
			APIKey:         p.OpenAIAPIKey,
			BaseURL:        p.OpenAIBaseURL,
			EmbeddingModel: "text-embedding-3-small",
			ChatModel:      "gpt-4o",
			Dimensions:     1536,
		}
	}
	if p.GeminiAPIKey != "" {
		// Gemini exposes an OpenAI-compatible endpoint, so the same client works.
		cfg.Providers[ProviderGemini] = ProviderConfig{
			APIKey:         p.GeminiAPIKey,
			BaseURL:        p.GeminiBaseURL,
			EmbeddingModel: "text-embedding-004",
			ChatModel:      "gemini-2.0-flash",
			Dimensions:     768,
		}
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if len(c.Providers) == 0 {
		return errors.New("at least one provider is required")
	}

	if c.DefaultProvider == "" {
		return errors.New("default provider is required")
	}
	if _, ok := c.Providers[c.DefaultProvider]; !ok {
		return fmt.Errorf("default provider %q is not configured", c.DefaultProvider)
	}

	for id, pc := range c.Providers {
		if pc.APIKey == "" {
			return fmt.Errorf("API key is required for provider %q", id)
		}
		if pc.Dimensions <= 0 {
			return fmt.Errorf("embedding dimensions are required for provider %q", id)
		}
	}

	return nil
}
