package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbdesk/kbdesk/internal/profile"
)

func TestNewConfigFromProfile(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		cfg := NewConfigFromProfile(&profile.Profile{AIEnabled: false, OpenAIAPIKey: "sk-x"})
		assert.False(t, cfg.Enabled)
		assert.Empty(t, cfg.Providers)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("both providers", func(t *testing.T) {
		cfg := NewConfigFromProfile(&profile.Profile{
			AIEnabled:       true,
			DefaultProvider: ProviderOpenAI,
			OpenAIAPIKey:    "sk-x",
			GeminiAPIKey:    "g-x",
		})
		require.NoError(t, cfg.Validate())
		require.Len(t, cfg.Providers, 2)

		// Dimensions differ per provider and are never interchangeable.
		assert.Equal(t, 1536, cfg.Providers[ProviderOpenAI].Dimensions)
		assert.Equal(t, 768, cfg.Providers[ProviderGemini].Dimensions)
		assert.NotEqual(t, cfg.Providers[ProviderOpenAI].Dimensions, cfg.Providers[ProviderGemini].Dimensions)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name:    "no providers",
			cfg:     &Config{Enabled: true, DefaultProvider: ProviderOpenAI, Providers: map[string]ProviderConfig{}},
			wantErr: true,
		},
		{
			name: "default provider not configured",
			cfg: &Config{
				Enabled:         true,
				DefaultProvider: ProviderGemini,
				Providers: map[string]ProviderConfig{
					ProviderOpenAI: {APIKey: "sk-x", Dimensions: 1536},
				},
			},
			wantErr: true,
		},
		{
			name: "missing api key",
			cfg: &Config{
				Enabled:         true,
				DefaultProvider: ProviderOpenAI,
				Providers: map[string]ProviderConfig{
					ProviderOpenAI: {Dimensions: 1536},
				},
			},
			wantErr: true,
		},
		{
			name: "valid",
			cfg: &Config{
				Enabled:         true,
				DefaultProvider: ProviderOpenAI,
				Providers: map[string]ProviderConfig{
					ProviderOpenAI: {APIKey: "sk-x", Dimensions: 1536},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	cfg := &Config{
		Enabled:         true,
		DefaultProvider: ProviderOpenAI,
		Providers: map[string]ProviderConfig{
			ProviderOpenAI: {APIKey: "sk-x", EmbeddingModel: "text-embedding-3-small", ChatModel: "gpt-4o", Dimensions: 1536},
			ProviderGemini: {APIKey: "g-x", EmbeddingModel: "text-embedding-004", ChatModel: "gemini-2.0-flash", Dimensions: 768},
		},
	}

	registry, err := NewRegistry(cfg)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, registry.DefaultID())
	assert.ElementsMatch(t, []string{ProviderOpenAI, ProviderGemini}, registry.IDs())

	provider, err := registry.Get(ProviderGemini)
	require.NoError(t, err)
	assert.Equal(t, 768, provider.Dimensions())

	// Empty id resolves to the default provider.
	provider, err = registry.Get("")
	require.NoError(t, err)
	assert.Equal(t, 1536, provider.Dimensions())

	_, err = registry.Get("anthropic")
	assert.Error(t, err)
}
