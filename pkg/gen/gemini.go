package gen

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

var _ Generator = (*Gemini)(nil)

// Gemini is a Generator backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	params Params
}

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	// APIKey authenticates the client. Required.
	APIKey string

	// Model is the model name to request. Required.
	Model string

	// Params override DefaultParams when non-zero.
	Params Params
}

// NewGemini creates a Gemini Generator.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gen: GeminiConfig.APIKey is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("gen: GeminiConfig.Model is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("gen: gemini client: %w", err)
	}
	params := cfg.Params
	if params == (Params{}) {
		params = DefaultParams
	}
	return &Gemini{client: client, model: cfg.Model, params: params}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if g.params.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(g.params.MaxTokens)
	}
	if g.params.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(g.params.Temperature))
	}
	if g.params.TopP > 0 {
		cfg.TopP = genai.Ptr(float32(g.params.TopP))
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gen: gemini generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gen: gemini returned no text")
	}
	return text, nil
}
