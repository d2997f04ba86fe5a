package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"estateinsight/server/internal/models"
)

const geminiProvider = "gemini"

type GeminiConfig struct {
	APIKey string
	// Empty selects the public Gemini endpoint
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// GeminiGenerator requests narratives from the Gemini API
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
}

func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, ErrUnavailable
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiGenerator{
		client:      client,
		model:       cfg.Model,
		maxTokens:   int32(cfg.MaxTokens),
		temperature: float32(cfg.Temperature),
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, query string, records []models.Record) (string, error) {
	prompt, err := BuildPrompt(query, records)
	if err != nil {
		return "", err
	}

	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr(g.temperature),
			MaxOutputTokens:   g.maxTokens,
		},
	)
	if err != nil {
		return "", &ProviderError{Provider: geminiProvider, Err: err}
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", &ProviderError{Provider: geminiProvider, Err: errors.New("empty response")}
	}
	return text, nil
}
