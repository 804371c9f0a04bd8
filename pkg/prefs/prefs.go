// Package prefs implements the assistant's learning subsystem: a durable
// per-user preference record plus an append-only interaction log, both kept
// in a kv.Store.
//
// Preferences hold learned shortcuts (exact-match response cache), speech
// corrections, media trigger patterns and style flags. The interaction log
// is never rewritten; a background analysis pass reads it incrementally
// from a persisted checkpoint and mines new media patterns out of it.
package prefs

import (
	"crypto/sha256"
	"encoding/hex"
)

// Preferences is the durable per-user preference record.
//
// PreferredResponses keys are case-folded utterance text; lookups are
// exact-match only.
type Preferences struct {
	// FrequentCommands counts how often each utterance has been handled.
	FrequentCommands map[string]int `msgpack:"frequent_commands"`

	// PreferredResponses maps a case-folded utterance to its canonical
	// response.
	PreferredResponses map[string]string `msgpack:"preferred_responses"`

	// Corrections maps a misheard phrase to its corrected form, applied
	// to utterances before model consultation.
	Corrections map[string]string `msgpack:"corrections"`

	// DislikedTopics is a set of topics the user has rejected.
	DislikedTopics map[string]struct{} `msgpack:"disliked_topics"`

	// MediaPatterns is the ordered list of two-word trigger phrases
	// observed to precede a media reference. Insertion order is discovery
	// order; earlier entries are tried first during query extraction.
	MediaPatterns []string `msgpack:"media_patterns"`

	// InformalStyle switches the response composer to a casual register.
	InformalStyle bool `msgpack:"informal_style"`
}

func defaultPreferences() Preferences {
	return Preferences{
		FrequentCommands:   make(map[string]int),
		PreferredResponses: make(map[string]string),
		Corrections:        make(map[string]string),
		DislikedTopics:     make(map[string]struct{}),
	}
}

// clone returns a deep copy so callers can read a snapshot without holding
// the engine lock.
func (p Preferences) clone() Preferences {
	cp := Preferences{
		FrequentCommands:   make(map[string]int, len(p.FrequentCommands)),
		PreferredResponses: make(map[string]string, len(p.PreferredResponses)),
		Corrections:        make(map[string]string, len(p.Corrections)),
		DislikedTopics:     make(map[string]struct{}, len(p.DislikedTopics)),
		MediaPatterns:      append([]string(nil), p.MediaPatterns...),
		InformalStyle:      p.InformalStyle,
	}
	for k, v := range p.FrequentCommands {
		cp.FrequentCommands[k] = v
	}
	for k, v := range p.PreferredResponses {
		cp.PreferredResponses[k] = v
	}
	for k, v := range p.Corrections {
		cp.Corrections[k] = v
	}
	for k := range p.DislikedTopics {
		cp.DislikedTopics[k] = struct{}{}
	}
	return cp
}

// Record is one immutable interaction log entry. Entries are appended per
// handled utterance and never mutated.
type Record struct {
	// Timestamp is the append time in Unix nanoseconds. It doubles as the
	// log key, so it must be unique per user.
	Timestamp int64 `msgpack:"timestamp"`

	// Session identifies the activation session the turn belongs to.
	Session string `msgpack:"session"`

	Command  string `msgpack:"command"`
	Response string `msgpack:"response"`
	Success  bool   `msgpack:"success"`
}

// UserID derives a stable one-way identifier from a user-supplied name.
// The raw name never appears in storage keys.
func UserID(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:])[:16]
}
