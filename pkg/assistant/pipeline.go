package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agustinroig/voz/pkg/actions"
	"github.com/agustinroig/voz/pkg/compose"
	"github.com/agustinroig/voz/pkg/prefs"
)

// fallbackResponse is spoken when the model misses its deadline.
const fallbackResponse = "Sorry for the delay, I'm having some trouble. Could you repeat or rephrase that?"

// stage is one step of the command pipeline. Stages are evaluated in
// fixed priority order; the first to report handled=true supplies the
// response. A non-nil error marks the turn failed in the interaction log
// while still producing a spoken response.
type stage struct {
	name string
	run  func(ctx context.Context, utterance string) (response string, handled bool, err error)
}

// dispatch processes one utterance end to end: acknowledgement first,
// then the pipeline and feedback tasks run concurrently, and once both
// are joined the final response is spoken and the turn is logged. The
// final response is always the last thing spoken for the utterance.
func (a *Assistant) dispatch(ctx context.Context, utterance string) {
	if !a.session.BeginProcessing() {
		// A second utterance can't start while one is in flight.
		return
	}
	a.session.Touch(a.now())

	a.speech.Enqueue(a.composer().Acknowledgement())

	var (
		response string
		success  bool
		pipeDone = make(chan struct{})
		fbDone   = make(chan struct{})
	)
	go func() {
		defer close(pipeDone)
		response, success = a.handle(ctx, utterance)
	}()
	go func() {
		defer close(fbDone)
		a.runFeedback(ctx, utterance, pipeDone)
	}()
	<-pipeDone
	<-fbDone

	a.speech.Enqueue(response)
	a.learning.LogInteraction(ctx, prefs.Record{
		Session:  a.session.ID(),
		Command:  utterance,
		Response: response,
		Success:  success,
	})

	a.session.EndProcessing()
}

// handle runs the pipeline stages for one utterance and returns the final
// response plus whether the turn succeeded. Any panic or stage error is
// converted to a single apology; a failing pipeline run must never crash
// the listen loop.
func (a *Assistant) handle(ctx context.Context, utterance string) (response string, success bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("pipeline panic", "panic", r, "utterance", utterance)
			response = a.apology()
			success = false
		}
	}()

	corrected := a.learning.ApplyCorrections(utterance)

	var resp string
	var stageErr error
	for _, st := range a.stages {
		r, handled, err := st.run(ctx, corrected)
		if handled {
			resp, stageErr = r, err
			break
		}
	}

	// Action triggers are inspected independently of how the response was
	// produced; a successful action overrides the response with its
	// confirmation.
	if kind, query, found := a.extractAction(corrected); found {
		if a.actions.Perform(ctx, kind, query) {
			resp = a.confirmAction(kind, query)
		}
	}

	if resp == "" {
		resp = a.apology()
		return resp, false
	}
	return resp, stageErr == nil
}

func (a *Assistant) apology() string {
	return fmt.Sprintf("Sorry %s, something went wrong handling your request.", a.cfg.UserName)
}

// stageQuickActions answers deterministic intents without touching the
// cache or the model.
func (a *Assistant) stageQuickActions(_ context.Context, utterance string) (string, bool, error) {
	low := strings.ToLower(utterance)
	switch {
	case strings.Contains(low, "time"):
		return fmt.Sprintf("It's %s, %s.", a.now().Format("15:04"), a.cfg.UserName), true, nil
	case strings.Contains(low, "date") || strings.Contains(low, "day is it"):
		return fmt.Sprintf("Today is %s.", a.now().Format("Monday, January 2")), true, nil
	}
	return "", false, nil
}

// stageCachedResponse serves exact-match learned responses. The cached
// text still goes through the composer so style and length rules apply.
func (a *Assistant) stageCachedResponse(_ context.Context, utterance string) (string, bool, error) {
	cached, ok := a.learning.PersonalizedResponse(utterance)
	if !ok {
		return "", false, nil
	}
	return a.composer().Enhance(cached), true, nil
}

// stageGenerative consults the model with a bounded deadline. A miss on
// the deadline yields the fixed fallback utterance and marks the turn
// failed; there is no retry within the turn.
func (a *Assistant) stageGenerative(ctx context.Context, utterance string) (string, bool, error) {
	genCtx, cancel := context.WithTimeout(ctx, a.cfg.ModelTimeout)
	defer cancel()

	out, err := a.model.Generate(genCtx, a.prompt(utterance))
	if err != nil {
		slog.Warn("model generation failed", "err", err)
		return fallbackResponse, true, err
	}
	return a.composer().Enhance(out), true, nil
}

// prompt frames the corrected utterance with user context before model
// consultation.
func (a *Assistant) prompt(utterance string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[User: %s", a.cfg.UserName)
	p := a.learning.Preferences()
	if len(p.DislikedTopics) > 0 {
		topics := make([]string, 0, len(p.DislikedTopics))
		for t := range p.DislikedTopics {
			topics = append(topics, t)
		}
		fmt.Fprintf(&sb, ". Avoid topics: %s", strings.Join(topics, ", "))
	}
	sb.WriteString("] ")
	sb.WriteString(utterance)
	return sb.String()
}

// mediaVocabulary and searchVocabulary are the action trigger words.
var (
	mediaVocabulary  = []string{"play", "put on", "open video", "watch"}
	searchVocabulary = []string{"search", "look up"}
)

// extractAction inspects the utterance for action triggers.
func (a *Assistant) extractAction(utterance string) (actions.Kind, string, bool) {
	low := strings.ToLower(utterance)

	for _, trig := range mediaVocabulary {
		if strings.Contains(low, trig) {
			if query := a.extractMediaQuery(low); query != "" {
				return actions.KindMedia, query, true
			}
			return "", "", false
		}
	}

	for _, trig := range searchVocabulary {
		if strings.Contains(low, trig) {
			query := low
			query = strings.ReplaceAll(query, "search for", "")
			query = strings.ReplaceAll(query, "search", "")
			query = strings.ReplaceAll(query, "look up", "")
			query = strings.TrimSpace(query)
			if query != "" {
				return actions.KindSearch, query, true
			}
			return "", "", false
		}
	}

	return "", "", false
}

// extractMediaQuery pulls the media title out of the utterance. Learned
// patterns are tried first, in discovery order; the fixed trigger words
// are the fallback.
func (a *Assistant) extractMediaQuery(low string) string {
	for _, pattern := range a.learning.MediaPatterns() {
		if idx := strings.Index(low, pattern); idx >= 0 {
			if q := strings.TrimSpace(low[idx+len(pattern):]); q != "" {
				return q
			}
		}
	}
	for _, trig := range []string{"play", "put on", "open"} {
		if _, after, found := strings.Cut(low, trig); found {
			if q := strings.TrimSpace(after); q != "" {
				return q
			}
		}
	}
	return ""
}

// confirmAction phrases the action confirmation, naming the query.
func (a *Assistant) confirmAction(kind actions.Kind, query string) string {
	switch kind {
	case actions.KindMedia:
		return fmt.Sprintf("Done %s, now playing %s.", a.cfg.UserName, query)
	case actions.KindSearch:
		return fmt.Sprintf("Here's what I found about %s. Does that help?", query)
	default:
		return ""
	}
}

// runFeedback is the concurrent feedback task for one pipeline run. The
// acknowledgement has already been spoken by dispatch; this task speaks
// at most one topic-appropriate interim phrase if the pipeline is still
// working after the grace period, then stays silent until the pipeline
// finishes.
func (a *Assistant) runFeedback(ctx context.Context, utterance string, pipeDone <-chan struct{}) {
	flavor := compose.SniffFlavor(utterance)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	given := false
	for {
		select {
		case <-pipeDone:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !given && a.now().Sub(a.session.LastInteraction()) > a.cfg.FeedbackGrace {
				a.speech.Enqueue(a.composer().ProcessingPhrase(flavor))
				given = true
			}
		}
	}
}
