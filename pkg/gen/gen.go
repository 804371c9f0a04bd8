// Package gen abstracts the generative model behind a text-in/text-out
// interface. The assistant treats the model as an opaque collaborator:
// it imposes its own timeout on every call and never depends on what the
// model does internally.
//
// Two backends are provided: an OpenAI-compatible client (pointed at a
// local endpoint such as an Ollama server) and a Gemini client.
package gen

import "context"

// Generator produces a text completion for a prompt. Implementations may
// be slow or unreachable; callers must bound calls with a context
// deadline.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to the Generator interface.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate implements Generator.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Params tune generation. Zero values fall back to backend defaults.
// The defaults favor short answers: spoken responses get truncated by the
// composer anyway, so there is no point paying for long completions.
type Params struct {
	MaxTokens   int64
	Temperature float64
	TopP        float64
}

// DefaultParams are the assistant's standard generation settings.
var DefaultParams = Params{
	MaxTokens:   150,
	Temperature: 0.7,
	TopP:        0.9,
}

// Warm issues a minimal one-token generation to keep the model loaded.
// Errors are ignored; warm-up is purely opportunistic.
func Warm(ctx context.Context, g Generator) {
	_, _ = g.Generate(ctx, "ok")
}
