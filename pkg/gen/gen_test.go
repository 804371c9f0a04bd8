package gen

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFuncAdapter(t *testing.T) {
	g := Func(func(_ context.Context, prompt string) (string, error) {
		return "echo: " + prompt, nil
	})
	got, err := g.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "echo: hi" {
		t.Fatalf("Generate = %q", got)
	}
}

func TestGenerateHonorsContextDeadline(t *testing.T) {
	g := Func(func(ctx context.Context, _ string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
			return "too late", nil
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := g.Generate(ctx, "slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestWarmSwallowsErrors(t *testing.T) {
	g := Func(func(context.Context, string) (string, error) {
		return "", errors.New("model offline")
	})
	// Must not panic or propagate.
	Warm(context.Background(), g)
}

func TestNewOpenAIRequiresModel(t *testing.T) {
	if _, err := NewOpenAI(OpenAIConfig{}); err == nil {
		t.Fatal("expected error for missing model")
	}
}
