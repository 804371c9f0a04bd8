package assistant

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agustinroig/voz/pkg/actions"
	"github.com/agustinroig/voz/pkg/gen"
	"github.com/agustinroig/voz/pkg/kv"
	"github.com/agustinroig/voz/pkg/prefs"
	"github.com/agustinroig/voz/pkg/voice"
)

// memorySynth records everything the assistant says.
type memorySynth struct {
	mu   sync.Mutex
	said []string
}

func (s *memorySynth) Say(_ context.Context, text string) error {
	s.mu.Lock()
	s.said = append(s.said, text)
	s.mu.Unlock()
	return nil
}

func (s *memorySynth) spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.said...)
}

// listenerFunc adapts a function to voice.Listener.
type listenerFunc func(ctx context.Context, timeout time.Duration) (string, bool)

func (f listenerFunc) Listen(ctx context.Context, timeout time.Duration) (string, bool) {
	return f(ctx, timeout)
}

var silentListener = listenerFunc(func(ctx context.Context, timeout time.Duration) (string, bool) {
	select {
	case <-ctx.Done():
	case <-time.After(timeout):
	}
	return "", false
})

type fixture struct {
	a     *Assistant
	synth *memorySynth
	queue *voice.Queue
	eng   *prefs.Engine
}

func newFixture(t *testing.T, cfg Config, model gen.Generator, listener voice.Listener, mux *actions.Mux) *fixture {
	t.Helper()

	store := kv.NewMemory(nil)
	t.Cleanup(func() { store.Close() })
	eng := prefs.Open(context.Background(), store, "alice")

	synth := &memorySynth{}
	queue := voice.NewQueue(synth, 32)

	if cfg.UserName == "" {
		cfg.UserName = "Alice"
	}
	if cfg.ActivationPhrase == "" {
		cfg.ActivationPhrase = "jarvis"
	}
	if listener == nil {
		listener = silentListener
	}
	if mux == nil {
		mux = actions.NewMux()
	}
	if model == nil {
		model = gen.Func(func(context.Context, string) (string, error) {
			return "model answer", nil
		})
	}

	a, err := New(cfg, Deps{
		Listener: listener,
		Speech:   queue,
		Model:    model,
		Learning: eng,
		Actions:  mux,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{a: a, synth: synth, queue: queue, eng: eng}
}

// drain closes the queue and returns everything spoken so far.
func (f *fixture) drain() []string {
	f.queue.Close()
	return f.synth.spoken()
}

func TestActivationGreetsOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	utterances := make(chan string, 1)
	utterances <- "hey Jarvis, wake up"
	listener := listenerFunc(func(ctx context.Context, timeout time.Duration) (string, bool) {
		select {
		case u := <-utterances:
			return u, true
		case <-time.After(5 * time.Millisecond):
			return "", false
		case <-ctx.Done():
			return "", false
		}
	})

	f := newFixture(t, Config{ResponseDelay: time.Hour}, nil, listener, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.a.listenLoop(ctx)
	}()

	waitFor(t, func() bool { return f.a.Session().State() == StateActive })
	time.Sleep(20 * time.Millisecond) // a few more listen cycles
	cancel()
	<-done

	greetings := 0
	for _, s := range f.drain() {
		if strings.Contains(s, "How can I help?") {
			greetings++
		}
	}
	if greetings != 1 {
		t.Fatalf("spoke %d greetings, want exactly 1", greetings)
	}
}

func TestDispatchLogsOneRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{}, nil, nil, nil)
	f.a.session.Activate("sess-1", time.Now())

	if f.a.Session().Processing() {
		t.Fatal("processing before dispatch")
	}
	f.a.dispatch(ctx, "tell me something nice")
	if f.a.Session().Processing() {
		t.Fatal("processing after dispatch returned")
	}

	records, err := f.eng.Log(ctx)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.Command != "tell me something nice" || !rec.Success {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Session != "sess-1" {
		t.Fatalf("record session = %q", rec.Session)
	}
}

func TestCachedResponseSkipsModel(t *testing.T) {
	ctx := context.Background()
	model := gen.Func(func(context.Context, string) (string, error) {
		t.Error("model consulted on a cache hit")
		return "", nil
	})
	f := newFixture(t, Config{}, model, nil, nil)
	f.a.session.Activate("s", time.Now())

	if err := f.eng.SetPreferredResponse(ctx, "hola", "¡Buenas!"); err != nil {
		t.Fatalf("SetPreferredResponse: %v", err)
	}

	f.a.dispatch(ctx, "Hola")

	spoken := f.drain()
	final := spoken[len(spoken)-1]
	if final != "Alice, ¡Buenas!" {
		t.Fatalf("final response = %q", final)
	}
}

func TestModelTimeoutFallback(t *testing.T) {
	ctx := context.Background()
	model := gen.Func(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	f := newFixture(t, Config{ModelTimeout: 20 * time.Millisecond}, model, nil, nil)
	f.a.session.Activate("s", time.Now())

	f.a.dispatch(ctx, "tell me a story")

	spoken := f.drain()
	final := spoken[len(spoken)-1]
	if final != fallbackResponse {
		t.Fatalf("final response = %q, want fallback", final)
	}

	records, err := f.eng.Log(ctx)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	for _, rec := range records {
		if rec.Success {
			t.Fatalf("timeout turn logged success=true: %+v", rec)
		}
	}
}

func TestActionOverridesModelResponse(t *testing.T) {
	ctx := context.Background()
	model := gen.Func(func(context.Context, string) (string, error) {
		return "some rambling model text", nil
	})
	mux := actions.NewMux()
	var performed string
	mux.Handle(actions.KindMedia, actions.ExecutorFunc(func(_ context.Context, q string) bool {
		performed = q
		return true
	}))

	f := newFixture(t, Config{}, model, nil, mux)
	f.a.session.Activate("s", time.Now())

	f.a.dispatch(ctx, "play despacito")

	if performed != "despacito" {
		t.Fatalf("executor query = %q", performed)
	}
	spoken := f.drain()
	final := spoken[len(spoken)-1]
	if !strings.Contains(final, "now playing despacito") {
		t.Fatalf("final response = %q", final)
	}
	for _, s := range spoken {
		if strings.Contains(s, "rambling model text") {
			t.Fatalf("raw model text was spoken: %q", s)
		}
	}
}

func TestFailedActionKeepsModelResponse(t *testing.T) {
	ctx := context.Background()
	mux := actions.NewMux()
	mux.Handle(actions.KindMedia, actions.ExecutorFunc(func(context.Context, string) bool {
		return false
	}))
	f := newFixture(t, Config{}, nil, nil, mux)
	f.a.session.Activate("s", time.Now())

	f.a.dispatch(ctx, "play despacito")

	spoken := f.drain()
	final := spoken[len(spoken)-1]
	if !strings.Contains(final, "model answer") {
		t.Fatalf("final response = %q, want model answer", final)
	}
}

func TestFeedbackInterimPhraseOnce(t *testing.T) {
	ctx := context.Background()
	model := gen.Func(func(ctx context.Context, _ string) (string, error) {
		select {
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
		}
		return "slow answer", nil
	})
	f := newFixture(t, Config{FeedbackGrace: 30 * time.Millisecond, ModelTimeout: time.Second}, model, nil, nil)
	f.a.session.Activate("s", time.Now())

	f.a.dispatch(ctx, "search for penguin facts")

	spoken := f.drain()
	if len(spoken) < 3 {
		t.Fatalf("spoken = %v, want ack + interim + final", spoken)
	}

	final := spoken[len(spoken)-1]
	if !strings.Contains(final, "slow answer") {
		t.Fatalf("final = %q", final)
	}

	// Exactly one interim phrase, and it precedes the final response.
	interim := 0
	for _, s := range spoken[1 : len(spoken)-1] {
		if s != "" {
			interim++
		}
	}
	if interim != 1 {
		t.Fatalf("spoke %d interim phrases, want 1: %v", interim, spoken)
	}
}

func TestQuickActions(t *testing.T) {
	ctx := context.Background()
	model := gen.Func(func(context.Context, string) (string, error) {
		t.Error("model consulted for a quick action")
		return "", nil
	})
	f := newFixture(t, Config{}, model, nil, nil)
	f.a.session.Activate("s", time.Now())

	f.a.dispatch(ctx, "what time is it")
	f.a.dispatch(ctx, "what's the date")

	spoken := f.drain()
	var timeResp, dateResp bool
	for _, s := range spoken {
		if strings.HasPrefix(s, "It's ") && strings.Contains(s, "Alice") {
			timeResp = true
		}
		if strings.HasPrefix(s, "Today is ") {
			dateResp = true
		}
	}
	if !timeResp || !dateResp {
		t.Fatalf("quick action responses missing: %v", spoken)
	}
}

func TestCorrectionsAppliedBeforeCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{}, nil, nil, nil)
	f.a.session.Activate("s", time.Now())

	if err := f.eng.AddCorrection(ctx, "halo", "hola"); err != nil {
		t.Fatalf("AddCorrection: %v", err)
	}
	if err := f.eng.SetPreferredResponse(ctx, "hola", "¡Buenas!"); err != nil {
		t.Fatalf("SetPreferredResponse: %v", err)
	}

	f.a.dispatch(ctx, "halo")

	spoken := f.drain()
	final := spoken[len(spoken)-1]
	if final != "Alice, ¡Buenas!" {
		t.Fatalf("final = %q", final)
	}
}

func TestLearnedMediaPatternExtraction(t *testing.T) {
	ctx := context.Background()
	mux := actions.NewMux()
	var performed string
	mux.Handle(actions.KindMedia, actions.ExecutorFunc(func(_ context.Context, q string) bool {
		performed = q
		return true
	}))
	f := newFixture(t, Config{}, nil, nil, mux)
	f.a.session.Activate("s", time.Now())

	// Teach a pattern, then use phrasing where only the learned pattern
	// isolates the title correctly.
	f.eng.LogInteraction(ctx, prefs.Record{Timestamp: 100, Command: "put on some jazz", Success: true})
	if _, err := f.eng.AnalyzePatterns(ctx); err != nil {
		t.Fatalf("AnalyzePatterns: %v", err)
	}

	f.a.dispatch(ctx, "put on the white album")
	if performed != "the white album" {
		t.Fatalf("executor query = %q", performed)
	}
	f.drain()
}

func TestDormancyNoticeOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(t, Config{
		ResponseDelay:        30 * time.Millisecond,
		DormantListenTimeout: 5 * time.Millisecond,
		ActiveListenTimeout:  5 * time.Millisecond,
	}, nil, nil, nil)
	f.a.session.Activate("s", time.Now())

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.a.listenLoop(ctx)
	}()

	waitFor(t, func() bool { return f.a.Session().State() == StateDormant })
	time.Sleep(30 * time.Millisecond) // more polling ticks after the transition
	cancel()
	<-done

	notices := 0
	for _, s := range f.drain() {
		if strings.Contains(s, "here when you need me") {
			notices++
		}
	}
	if notices != 1 {
		t.Fatalf("spoke %d dormancy notices, want exactly 1", notices)
	}
}

func TestPipelinePanicBecomesApology(t *testing.T) {
	ctx := context.Background()
	model := gen.Func(func(context.Context, string) (string, error) {
		panic("model exploded")
	})
	f := newFixture(t, Config{}, model, nil, nil)
	f.a.session.Activate("s", time.Now())

	f.a.dispatch(ctx, "tell me something")

	spoken := f.drain()
	final := spoken[len(spoken)-1]
	if !strings.Contains(final, "something went wrong") {
		t.Fatalf("final = %q, want apology", final)
	}

	records, err := f.eng.Log(ctx)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(records) != 1 || records[0].Success {
		t.Fatalf("records = %+v, want one failed record", records)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
