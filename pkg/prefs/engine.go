package prefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/agustinroig/voz/pkg/kv"
)

// MediaTriggers are the verbs that mark an utterance as a media request.
// The analysis pass mines two-word patterns starting at these words.
var MediaTriggers = []string{"play", "put", "open", "watch"}

// Engine is the learning engine for a single user. All preference writes
// go through the engine's lock, serializing the foreground pipeline path
// and the background analysis path.
type Engine struct {
	store kv.Store
	id    string

	mu    sync.Mutex
	prefs Preferences

	now func() time.Time
}

// Open creates an Engine for the named user, loading preferences from the
// store. A missing or unreadable preference record degrades to empty
// defaults; it is never an error.
func Open(ctx context.Context, store kv.Store, userName string) *Engine {
	e := &Engine{
		store: store,
		id:    UserID(userName),
		prefs: defaultPreferences(),
		now:   time.Now,
	}

	data, err := store.Get(ctx, prefsKey(e.id))
	switch {
	case errors.Is(err, kv.ErrNotFound):
		// First run for this user.
	case err != nil:
		slog.Warn("prefs: load failed, using defaults", "user", e.id, "err", err)
	default:
		var p Preferences
		if err := msgpack.Unmarshal(data, &p); err != nil {
			slog.Warn("prefs: decode failed, using defaults", "user", e.id, "err", err)
		} else {
			if p.FrequentCommands == nil {
				p.FrequentCommands = make(map[string]int)
			}
			if p.PreferredResponses == nil {
				p.PreferredResponses = make(map[string]string)
			}
			if p.Corrections == nil {
				p.Corrections = make(map[string]string)
			}
			if p.DislikedTopics == nil {
				p.DislikedTopics = make(map[string]struct{})
			}
			e.prefs = p
		}
	}
	return e
}

// UserID returns the hashed user identifier the engine stores under.
func (e *Engine) UserID() string { return e.id }

// Preferences returns a snapshot of the current preferences.
func (e *Engine) Preferences() Preferences {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prefs.clone()
}

// PersonalizedResponse looks up a learned response for the utterance.
// The lookup is exact-match on the case-folded text; there is no fuzzy
// matching. Returns false on a miss.
func (e *Engine) PersonalizedResponse(utterance string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(utterance))
	e.mu.Lock()
	defer e.mu.Unlock()
	resp, ok := e.prefs.PreferredResponses[key]
	return resp, ok
}

// ApplyCorrections rewrites the utterance using learned corrections.
// Each correction key found in the text (case-insensitive) is replaced at
// its first occurrence, once, in sorted key order. Replacements are not
// re-scanned, so corrections never compose recursively.
func (e *Engine) ApplyCorrections(text string) string {
	e.mu.Lock()
	keys := make([]string, 0, len(e.prefs.Corrections))
	for k := range e.prefs.Corrections {
		keys = append(keys, k)
	}
	corrections := make(map[string]string, len(keys))
	for _, k := range keys {
		corrections[k] = e.prefs.Corrections[k]
	}
	e.mu.Unlock()

	sort.Strings(keys)
	for _, k := range keys {
		idx := strings.Index(strings.ToLower(text), strings.ToLower(k))
		if idx < 0 {
			continue
		}
		text = text[:idx] + corrections[k] + text[idx+len(k):]
	}
	return text
}

// LogInteraction appends one record to the interaction log and bumps the
// command's frequency counter. Log-write failures are retried once and
// then dropped with a warning: logging must never break the user-facing
// turn, so this method does not return an error.
func (e *Engine) LogInteraction(ctx context.Context, rec Record) {
	if rec.Timestamp == 0 {
		rec.Timestamp = e.now().UnixNano()
	}

	data, err := msgpack.Marshal(rec)
	if err != nil {
		slog.Warn("prefs: encode record failed", "err", err)
		return
	}
	key := logKey(e.id, rec.Timestamp)
	if err := e.store.Set(ctx, key, data); err != nil {
		if err = e.store.Set(ctx, key, data); err != nil {
			slog.Warn("prefs: append record failed", "err", err)
			return
		}
	}

	e.mu.Lock()
	e.prefs.FrequentCommands[strings.ToLower(strings.TrimSpace(rec.Command))]++
	err = e.persistLocked(ctx)
	e.mu.Unlock()
	if err != nil {
		slog.Warn("prefs: persist failed", "err", err)
	}
}

// Log returns all interaction records in chronological order.
func (e *Engine) Log(ctx context.Context) ([]Record, error) {
	var out []Record
	for entry, err := range e.store.List(ctx, logPrefix(e.id)) {
		if err != nil {
			return nil, fmt.Errorf("prefs: list log: %w", err)
		}
		var rec Record
		if err := msgpack.Unmarshal(entry.Value, &rec); err != nil {
			// Skip corrupt entries; the log is append-only and a bad
			// record must not stall analysis.
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// AnalyzePatterns scans interaction records appended since the last call
// and extracts new media trigger patterns: for every logged command
// containing a trigger word, the trigger plus its following token becomes
// a two-word pattern. Unseen patterns are appended to MediaPatterns in
// discovery order and preferences are persisted if anything was added.
//
// The scan position is checkpointed in the store, so re-running over an
// unchanged log is a no-op. Returns the number of patterns added.
func (e *Engine) AnalyzePatterns(ctx context.Context) (int, error) {
	ck, err := e.loadCheckpoint(ctx)
	if err != nil {
		return 0, err
	}

	records, err := e.Log(ctx)
	if err != nil {
		return 0, err
	}

	added := 0
	maxTS := ck
	e.mu.Lock()
	for _, rec := range records {
		if rec.Timestamp <= ck {
			continue
		}
		if rec.Timestamp > maxTS {
			maxTS = rec.Timestamp
		}
		pattern, ok := extractMediaPattern(rec.Command)
		if !ok {
			continue
		}
		if !slices.Contains(e.prefs.MediaPatterns, pattern) {
			e.prefs.MediaPatterns = append(e.prefs.MediaPatterns, pattern)
			added++
		}
	}
	if added > 0 {
		err = e.persistLocked(ctx)
	}
	e.mu.Unlock()
	if err != nil {
		return added, err
	}

	if maxTS > ck {
		ts := strconv.FormatInt(maxTS, 10)
		if err := e.store.Set(ctx, checkpointKey(e.id), []byte(ts)); err != nil {
			return added, fmt.Errorf("prefs: save checkpoint: %w", err)
		}
	}
	return added, nil
}

// MediaPatterns returns the learned media trigger patterns in discovery
// order.
func (e *Engine) MediaPatterns() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.prefs.MediaPatterns...)
}

// SetPreferredResponse teaches the engine a canonical response for an
// utterance. The key is case-folded before storage.
func (e *Engine) SetPreferredResponse(ctx context.Context, utterance, response string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefs.PreferredResponses[strings.ToLower(strings.TrimSpace(utterance))] = response
	return e.persistLocked(ctx)
}

// AddCorrection teaches the engine that heard should be read as corrected.
func (e *Engine) AddCorrection(ctx context.Context, heard, corrected string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefs.Corrections[heard] = corrected
	return e.persistLocked(ctx)
}

// DislikeTopic marks a topic as rejected by the user.
func (e *Engine) DislikeTopic(ctx context.Context, topic string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefs.DislikedTopics[strings.ToLower(topic)] = struct{}{}
	return e.persistLocked(ctx)
}

// SetInformalStyle switches the casual response register on or off.
func (e *Engine) SetInformalStyle(ctx context.Context, informal bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefs.InformalStyle = informal
	return e.persistLocked(ctx)
}

func (e *Engine) persistLocked(ctx context.Context) error {
	data, err := msgpack.Marshal(e.prefs)
	if err != nil {
		return fmt.Errorf("prefs: encode preferences: %w", err)
	}
	if err := e.store.Set(ctx, prefsKey(e.id), data); err != nil {
		return fmt.Errorf("prefs: save preferences: %w", err)
	}
	return nil
}

func (e *Engine) loadCheckpoint(ctx context.Context) (int64, error) {
	data, err := e.store.Get(ctx, checkpointKey(e.id))
	if errors.Is(err, kv.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("prefs: load checkpoint: %w", err)
	}
	ts, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		// A corrupt checkpoint falls back to a full rescan, which is safe
		// because pattern extraction is idempotent.
		return 0, nil
	}
	return ts, nil
}

// extractMediaPattern finds the first media trigger word in the command
// and returns it joined with the following token. Commands where the
// trigger is the last word yield nothing.
func extractMediaPattern(command string) (string, bool) {
	words := strings.Fields(strings.ToLower(command))
	for i, w := range words {
		for _, trig := range MediaTriggers {
			if w == trig && i < len(words)-1 {
				return w + " " + words[i+1], true
			}
		}
	}
	return "", false
}
