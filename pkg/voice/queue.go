package voice

import (
	"context"
	"log/slog"
	"sync"
)

// Queue serializes spoken output through a single consumer goroutine.
// Utterances are rendered in submission order and never overlap, even
// when multiple producers (pipeline, feedback, quick actions) enqueue
// concurrently. The queue is the only path to the output device.
type Queue struct {
	synth Synthesizer
	ch    chan string
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewQueue starts the speech worker. The buffer bounds how many pending
// utterances producers can stack up before Enqueue blocks.
func NewQueue(synth Synthesizer, buffer int) *Queue {
	if buffer <= 0 {
		buffer = 16
	}
	q := &Queue{
		synth: synth,
		ch:    make(chan string, buffer),
		done:  make(chan struct{}),
	}
	go q.worker()
	return q
}

func (q *Queue) worker() {
	defer close(q.done)
	for text := range q.ch {
		if err := q.synth.Say(context.Background(), text); err != nil {
			slog.Warn("voice: synthesis failed", "err", err)
		}
	}
}

// Enqueue submits one utterance for rendering. It blocks only when the
// buffer is full. Enqueue after Close is a silent no-op: shutdown races
// with late speech must not panic.
func (q *Queue) Enqueue(text string) {
	if text == "" {
		return
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.ch <- text
	q.mu.Unlock()
}

// Close stops accepting utterances, drains everything already queued and
// waits for the worker to finish rendering.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()
	<-q.done
}
