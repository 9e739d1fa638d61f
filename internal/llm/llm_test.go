package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigApplyDefaults(t *testing.T) {
	t.Run("googleai", func(t *testing.T) {
		cfg := Config{}
		cfg.ApplyDefaults()
		assert.Equal(t, ProviderGoogleAI, cfg.Provider)
		assert.Equal(t, "gemini-2.5-flash-lite", cfg.Model)
		assert.Equal(t, defaultTemperature, cfg.Temperature)
	})

	t.Run("openai", func(t *testing.T) {
		cfg := Config{Provider: ProviderOpenAI}
		cfg.ApplyDefaults()
		assert.Equal(t, "gpt-4o-mini", cfg.Model)
	})

	t.Run("explicit values kept", func(t *testing.T) {
		cfg := Config{Provider: ProviderOpenAI, Model: "gpt-4o", Temperature: 0.9}
		cfg.ApplyDefaults()
		assert.Equal(t, "gpt-4o", cfg.Model)
		assert.Equal(t, 0.9, cfg.Temperature)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid googleai",
			cfg:  Config{Provider: ProviderGoogleAI, Model: "gemini-2.5-flash-lite", APIKey: "k", Temperature: 0.4},
		},
		{
			name: "openai without key",
			cfg:  Config{Provider: ProviderOpenAI, Model: "gpt-4o-mini", Temperature: 0.4},
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "anthropic", Model: "m"},
			wantErr: true,
		},
		{
			name:    "missing model",
			cfg:     Config{Provider: ProviderGoogleAI, APIKey: "k"},
			wantErr: true,
		},
		{
			name:    "googleai without key",
			cfg:     Config{Provider: ProviderGoogleAI, Model: "m"},
			wantErr: true,
		},
		{
			name:    "temperature out of range",
			cfg:     Config{Provider: ProviderOpenAI, Model: "m", Temperature: 2.5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("LLM_BASE_URL", "https://gateway.local/v1")
	t.Setenv("OPENAI_API_KEY", "oai-key")

	cfg := ConfigFromEnv()
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "https://gateway.local/v1", cfg.BaseURL)
	assert.Equal(t, "oai-key", cfg.APIKey)
}

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("GEMINI_API_KEY", "gem-key")

	cfg := ConfigFromEnv()
	assert.Equal(t, ProviderGoogleAI, cfg.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Model)
	assert.Equal(t, "gem-key", cfg.APIKey)
}

func TestNewServiceRejectsInvalidConfig(t *testing.T) {
	_, err := NewService(context.Background(), Config{Provider: "anthropic"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
