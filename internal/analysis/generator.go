package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"estateinsight/server/config"
	"estateinsight/server/internal/models"
)

// ErrUnavailable is returned when no text-generation provider is configured
var ErrUnavailable = errors.New("narrative provider not configured")

// ProviderError wraps a failure reported by, or while talking to, a
// text-generation provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s provider error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Generator produces a narrative for a query and the records it matched.
// Implementations make a single attempt and fail with ErrUnavailable or a
// *ProviderError.
type Generator interface {
	Generate(ctx context.Context, query string, records []models.Record) (string, error)
}

const systemPrompt = "You are a real estate market analyst providing insightful analysis of property data."

const promptTemplate = `Analyze this real estate data and provide a concise, insightful summary in 2-3 paragraphs.

User Query: %s

Data: %s

Focus on:
1. Key trends in prices and demand
2. Comparison between locations if multiple are present
3. Notable changes over years
4. Market insights and recommendations

Write in a professional but accessible tone for real estate analysis.`

// BuildPrompt embeds the query and the serialized records in the fixed
// analysis prompt.
func BuildPrompt(query string, records []models.Record) (string, error) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal records: %w", err)
	}
	return fmt.Sprintf(promptTemplate, query, data), nil
}

// NewGenerator returns the generator selected by the configuration, or
// ErrUnavailable when no provider key is set.
func NewGenerator(ctx context.Context, cfg *config.Config) (Generator, error) {
	if !cfg.NarrativeEnabled() {
		return nil, ErrUnavailable
	}

	n := cfg.Narrative
	timeout := time.Duration(n.Timeout) * time.Second

	switch strings.ToLower(n.Provider) {
	case "gemini":
		gen, err := NewGeminiGenerator(ctx, GeminiConfig{
			APIKey:      cfg.ActiveAPIKey(),
			Model:       n.Model,
			MaxTokens:   n.MaxTokens,
			Temperature: n.Temperature,
		})
		if err != nil {
			return nil, err
		}
		return gen, nil
	case "openai", "":
		return NewOpenAIGenerator(OpenAIConfig{
			APIKey:      cfg.ActiveAPIKey(),
			BaseURL:     n.OpenAIBaseURL,
			Model:       n.Model,
			MaxTokens:   n.MaxTokens,
			Temperature: n.Temperature,
			Timeout:     timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported narrative provider: %s", n.Provider)
	}
}
