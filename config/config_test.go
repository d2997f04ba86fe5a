package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 500, cfg.Narrative.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Narrative.Temperature, 0.0001)
	assert.Equal(t, 2020, cfg.Query.MinYear)
	assert.Equal(t, 2024, cfg.Query.MaxYear)
	assert.Equal(t, "Pune", cfg.Query.City)
	assert.Equal(t, 100, cfg.Import.BatchSize)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("IMPORT_BATCH_SIZE", "25")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 25, cfg.Import.BatchSize)
}

func TestNarrativeEnabled(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		openAI   string
		gemini   string
		expected bool
	}{
		{name: "No key", provider: "openai", expected: false},
		{name: "Placeholder key", provider: "openai", openAI: "your_openai_api_key_here", expected: false},
		{name: "OpenAI key", provider: "openai", openAI: "sk-test", expected: true},
		{name: "Gemini key", provider: "gemini", gemini: "g-test", expected: true},
		{name: "Gemini selected, only OpenAI key", provider: "gemini", openAI: "sk-test", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Narrative.Provider = tt.provider
			cfg.Narrative.OpenAIAPIKey = tt.openAI
			cfg.Narrative.GeminiAPIKey = tt.gemini

			assert.Equal(t, tt.expected, cfg.NarrativeEnabled())
		})
	}
}
