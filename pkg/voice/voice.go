// Package voice defines the assistant's speech collaborator contracts and
// the serial speech queue that all spoken output flows through.
//
// Speech input and output devices are external collaborators with narrow
// contracts: a Listener that returns text or nothing, and a Synthesizer
// that renders one utterance at a time. The package provides console
// implementations and a websocket client for a remote recognizer daemon.
package voice

import (
	"context"
	"time"
)

// Listener captures one utterance of speech as text.
//
// Listen blocks for up to timeout and reports ok=false on silence,
// mis-recognition or timeout. It never returns an error: a broken
// microphone is indistinguishable from silence and must not crash the
// listen loop.
type Listener interface {
	Listen(ctx context.Context, timeout time.Duration) (text string, ok bool)
}

// Synthesizer renders one utterance on the output device. Implementations
// need not be concurrency-safe; the Queue serializes all calls.
type Synthesizer interface {
	Say(ctx context.Context, text string) error
}

// SynthesizerFunc adapts a function to the Synthesizer interface.
type SynthesizerFunc func(ctx context.Context, text string) error

// Say implements Synthesizer.
func (f SynthesizerFunc) Say(ctx context.Context, text string) error {
	return f(ctx, text)
}
