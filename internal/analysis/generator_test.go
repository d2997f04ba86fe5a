package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateinsight/server/config"
)

func TestBuildPrompt(t *testing.T) {
	prompt, err := BuildPrompt("Wakad 2023", wakad2023)
	require.NoError(t, err)

	assert.Contains(t, prompt, "User Query: Wakad 2023")
	assert.Contains(t, prompt, `"total_sales_igr": 5000000`)
	assert.Contains(t, prompt, "Key trends in prices and demand")
}

func TestNewGenerator(t *testing.T) {
	t.Run("Not configured", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Narrative.Provider = "openai"

		gen, err := NewGenerator(context.Background(), cfg)
		assert.Nil(t, gen)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("OpenAI", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Narrative.Provider = "openai"
		cfg.Narrative.OpenAIAPIKey = "sk-test"
		cfg.Narrative.Timeout = 5

		gen, err := NewGenerator(context.Background(), cfg)
		require.NoError(t, err)
		assert.IsType(t, &OpenAIGenerator{}, gen)
	})

	t.Run("Unsupported provider", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Narrative.Provider = "llama"
		cfg.Narrative.OpenAIAPIKey = "sk-test"

		_, err := NewGenerator(context.Background(), cfg)
		assert.Error(t, err)
		assert.False(t, errors.Is(err, ErrUnavailable))
	})
}

func TestProviderError(t *testing.T) {
	inner := errors.New("quota exceeded")
	err := &ProviderError{Provider: "gemini", StatusCode: 429, Err: inner}

	assert.Equal(t, "gemini provider error (status 429): quota exceeded", err.Error())
	assert.ErrorIs(t, err, inner)
}
