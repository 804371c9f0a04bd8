// Package assistant implements the orchestration core: the activation
// state machine and listen loop, the command pipeline with its concurrent
// feedback protocol, and the background maintenance loop.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agustinroig/voz/pkg/actions"
	"github.com/agustinroig/voz/pkg/compose"
	"github.com/agustinroig/voz/pkg/gen"
	"github.com/agustinroig/voz/pkg/prefs"
	"github.com/agustinroig/voz/pkg/voice"
)

// Config is the assistant's immutable runtime configuration, loaded once
// at startup.
type Config struct {
	// Name is the assistant's display name.
	Name string

	// UserName is how the assistant addresses the user.
	UserName string

	// ActivationPhrase wakes the assistant from Dormant. Matched as a
	// case-insensitive substring of the heard utterance.
	ActivationPhrase string

	// ResponseDelay is the idle time after which an Active assistant
	// goes Dormant.
	ResponseDelay time.Duration

	// ActiveListenTimeout is the per-utterance listen timeout while
	// Active, long enough to tolerate natural pauses.
	ActiveListenTimeout time.Duration

	// DormantListenTimeout is the short listen timeout used for fast
	// activation-phrase detection while Dormant.
	DormantListenTimeout time.Duration

	// QuietAfter is how long the assistant must be idle before dormant
	// polling backs off.
	QuietAfter time.Duration

	// QuietPoll is the back-off sleep between listens once quiet.
	QuietPoll time.Duration

	// ModelTimeout bounds each generative model call.
	ModelTimeout time.Duration

	// FeedbackGrace is how long the pipeline may run, measured from the
	// last interaction, before the interim phrase is spoken.
	FeedbackGrace time.Duration

	// AnalyzeEvery is the background pattern-analysis cadence.
	AnalyzeEvery time.Duration

	// WarmAfter is how long the assistant must be dormant and idle
	// before the model is kept warm.
	WarmAfter time.Duration
}

// withDefaults fills zero fields with the standard values.
func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "Jarvis"
	}
	if c.UserName == "" {
		c.UserName = "friend"
	}
	if c.ActivationPhrase == "" {
		c.ActivationPhrase = strings.ToLower(c.Name)
	}
	if c.ResponseDelay <= 0 {
		c.ResponseDelay = 90 * time.Second
	}
	if c.ActiveListenTimeout <= 0 {
		c.ActiveListenTimeout = 3 * time.Second
	}
	if c.DormantListenTimeout <= 0 {
		c.DormantListenTimeout = 1 * time.Second
	}
	if c.QuietAfter <= 0 {
		c.QuietAfter = 5 * time.Minute
	}
	if c.QuietPoll <= 0 {
		c.QuietPoll = 500 * time.Millisecond
	}
	if c.ModelTimeout <= 0 {
		c.ModelTimeout = 5 * time.Second
	}
	if c.FeedbackGrace <= 0 {
		c.FeedbackGrace = 3 * time.Second
	}
	if c.AnalyzeEvery <= 0 {
		c.AnalyzeEvery = 30 * time.Second
	}
	if c.WarmAfter <= 0 {
		c.WarmAfter = time.Minute
	}
	return c
}

// Deps are the assistant's collaborators.
type Deps struct {
	Listener voice.Listener
	Speech   *voice.Queue
	Model    gen.Generator
	Learning *prefs.Engine
	Actions  *actions.Mux
}

// Assistant owns the activation state machine and drives everything else.
type Assistant struct {
	cfg      Config
	listener voice.Listener
	speech   *voice.Queue
	model    gen.Generator
	learning *prefs.Engine
	actions  *actions.Mux
	session  *Session
	stages   []stage

	now func() time.Time
}

// New wires an Assistant. All dependencies are required.
func New(cfg Config, d Deps) (*Assistant, error) {
	if d.Listener == nil || d.Speech == nil || d.Model == nil || d.Learning == nil || d.Actions == nil {
		return nil, errors.New("assistant: all dependencies are required")
	}
	a := &Assistant{
		cfg:      cfg.withDefaults(),
		listener: d.Listener,
		speech:   d.Speech,
		model:    d.Model,
		learning: d.Learning,
		actions:  d.Actions,
		session:  &Session{},
		now:      time.Now,
	}
	a.stages = []stage{
		{name: "quick", run: a.stageQuickActions},
		{name: "cache", run: a.stageCachedResponse},
		{name: "generate", run: a.stageGenerative},
	}
	return a, nil
}

// Session exposes the activation state, mainly for tests and status
// reporting.
func (a *Assistant) Session() *Session { return a.session }

// composer builds a Composer reflecting the user's current style. The
// informal flag can change at runtime via the learning engine, so the
// composer is rebuilt per use rather than cached.
func (a *Assistant) composer() *compose.Composer {
	return &compose.Composer{
		UserName: a.cfg.UserName,
		Informal: a.learning.Preferences().InformalStyle,
	}
}

// Run drives the listen loop and the background maintenance loop until
// the context is canceled, then speaks the farewell. The caller is
// responsible for draining the speech queue afterwards.
func (a *Assistant) Run(ctx context.Context) {
	slog.Info("assistant ready",
		"name", a.cfg.Name,
		"activation", a.cfg.ActivationPhrase,
		"user", a.learning.UserID())

	bgDone := make(chan struct{})
	go func() {
		defer close(bgDone)
		a.maintenanceLoop(ctx)
	}()

	a.listenLoop(ctx)
	<-bgDone

	a.speech.Enqueue(fmt.Sprintf("Goodbye, %s.", a.cfg.UserName))
	slog.Info("assistant stopped")
}

// listenLoop polls the listener, fires activation, dispatches utterances
// and re-evaluates the dormancy timeout after every cycle.
func (a *Assistant) listenLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		dormant := a.session.State() == StateDormant

		// Long-idle back-off: keep listening for the activation phrase,
		// just less eagerly.
		if dormant && a.now().Sub(a.session.LastInteraction()) > a.cfg.QuietAfter {
			if !sleepCtx(ctx, a.cfg.QuietPoll) {
				return
			}
		}

		timeout := a.cfg.ActiveListenTimeout
		if dormant {
			timeout = a.cfg.DormantListenTimeout
		}

		text, ok := a.listener.Listen(ctx, timeout)
		if ctx.Err() != nil {
			return
		}

		if ok && containsFold(text, a.cfg.ActivationPhrase) {
			a.activate()
			continue
		}
		if ok && a.session.State() == StateActive {
			a.dispatch(ctx, text)
		}

		if a.session.TryDeactivate(a.now(), a.cfg.ResponseDelay) {
			a.speech.Enqueue("I'm here when you need me.")
			slog.Debug("assistant dormant")
		}
	}
}

// activate transitions to Active and greets. Each activation starts a new
// session, identified in the interaction log.
func (a *Assistant) activate() {
	id := uuid.NewString()
	a.session.Activate(id, a.now())
	c := a.composer()
	a.speech.Enqueue(fmt.Sprintf("%s, %s. How can I help?", c.Greeting(), a.cfg.UserName))
	slog.Info("assistant active", "session", id)
}

// maintenanceLoop is the low-priority background task: periodic pattern
// analysis plus idle-time model warm-up. It exits on context
// cancellation.
func (a *Assistant) maintenanceLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.AnalyzeEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		added, err := a.learning.AnalyzePatterns(ctx)
		switch {
		case err != nil:
			slog.Warn("pattern analysis failed", "err", err)
		case added > 0:
			slog.Info("learned media patterns", "added", added)
		}

		if a.session.State() == StateDormant &&
			a.now().Sub(a.session.LastInteraction()) > a.cfg.WarmAfter {
			warmCtx, cancel := context.WithTimeout(ctx, a.cfg.ModelTimeout)
			gen.Warm(warmCtx, a.model)
			cancel()
		}
	}
}

// containsFold reports whether s contains substr, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sleepCtx sleeps for d unless the context ends first. Reports false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
