// Package actions wraps the assistant's side-effecting collaborators:
// media playback and web search. Executors report plain success or
// failure; a broken browser or network must never surface as an error in
// the command pipeline.
package actions

import "context"

// Kind identifies an action category.
type Kind string

const (
	// KindMedia plays media matching a query.
	KindMedia Kind = "media"
	// KindSearch runs a web search for a query.
	KindSearch Kind = "search"
)

// Executor performs one external action. Failures are reported as false,
// never as a panic or error.
type Executor interface {
	Perform(ctx context.Context, query string) bool
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, query string) bool

// Perform implements Executor.
func (f ExecutorFunc) Perform(ctx context.Context, query string) bool {
	return f(ctx, query)
}

// Mux routes action kinds to their executors.
type Mux struct {
	executors map[Kind]Executor
}

// NewMux creates an empty action mux.
func NewMux() *Mux {
	return &Mux{executors: make(map[Kind]Executor)}
}

// Handle registers an executor for a kind, replacing any previous one.
func (m *Mux) Handle(kind Kind, ex Executor) {
	m.executors[kind] = ex
}

// Perform dispatches the query to the executor for kind. An unregistered
// kind is a failed action.
func (m *Mux) Perform(ctx context.Context, kind Kind, query string) bool {
	ex, ok := m.executors[kind]
	if !ok {
		return false
	}
	return ex.Perform(ctx, query)
}
