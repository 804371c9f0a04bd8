package gen

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var _ Generator = (*OpenAI)(nil)

// OpenAI is a Generator backed by any OpenAI-compatible chat completion
// endpoint. With BaseURL pointed at a local server (e.g. an Ollama
// instance) the assistant runs entirely against local inference.
type OpenAI struct {
	client openai.Client
	model  string
	params Params
}

// OpenAIConfig configures the OpenAI-compatible backend.
type OpenAIConfig struct {
	// BaseURL is the endpoint root. Empty means the public OpenAI API.
	BaseURL string

	// APIKey authenticates the client. Local endpoints typically accept
	// any non-empty value.
	APIKey string

	// Model is the model name to request. Required.
	Model string

	// Params override DefaultParams when non-zero.
	Params Params
}

// NewOpenAI creates an OpenAI-compatible Generator.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.Model == "" {
		return nil, errors.New("gen: OpenAIConfig.Model is required")
	}
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	params := cfg.Params
	if params == (Params{}) {
		params = DefaultParams
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		params: params,
	}, nil
}

func (g *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if g.params.MaxTokens > 0 {
		req.MaxTokens = openai.Int(g.params.MaxTokens)
	}
	if g.params.Temperature > 0 {
		req.Temperature = openai.Float(g.params.Temperature)
	}
	if g.params.TopP > 0 {
		req.TopP = openai.Float(g.params.TopP)
	}

	resp, err := g.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("gen: openai generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("gen: openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
