// Package compose turns raw model or cache output into the assistant's
// final spoken form: personalized with the user's name, optionally shifted
// to a casual register, and capped in length. It also owns the fixed
// phrase banks used by the feedback protocol (acknowledgements, "still
// working" phrases, time-of-day greetings).
package compose

import (
	"math/rand/v2"
	"strings"
	"time"
)

// maxResponseWords is the length threshold above which a response is cut
// down to its first two sentences.
const maxResponseWords = 30

// Flavor selects which bank an interim processing phrase is drawn from.
type Flavor int

const (
	// FlavorGeneric is the default "thinking" flavor.
	FlavorGeneric Flavor = iota
	// FlavorSearch is used when the utterance looks like a lookup.
	FlavorSearch
	// FlavorMedia is used when the utterance looks like a media request.
	FlavorMedia
)

var acknowledgements = []string{
	"Let me see...",
	"Let me check...",
	"One moment...",
	"On it...",
	"Right away...",
	"Let me think...",
}

var processingPhrases = map[Flavor][]string{
	FlavorSearch: {
		"I'm looking that up...",
		"Checking my sources...",
		"Searching for the latest on that...",
	},
	FlavorMedia: {
		"Getting the playback ready...",
		"Setting up the player...",
		"Starting the video...",
	},
	FlavorGeneric: {
		"Working on your request...",
		"Thinking about what you need...",
		"Turning that over...",
	},
}

// informalSubstitutions shift a handful of stock phrases toward a casual
// register. Applied only when the user's learned style is informal.
var informalSubstitutions = [][2]string{
	{"I can help you", "happy to help"},
	{"I apologize", "sorry"},
	{"Certainly", "Sure"},
}

// Composer adapts raw responses to one user's style.
type Composer struct {
	// UserName is prefixed to responses that don't already address the
	// user.
	UserName string

	// Informal applies the casual-register substitutions.
	Informal bool

	// rng is the phrase picker source; nil means the global source.
	rng *rand.Rand

	// now is the clock used for time-based greetings; nil means time.Now.
	now func() time.Time
}

// Enhance produces the final spoken form of a raw response:
//
//  1. Prefix the user's name unless the response already starts with it.
//  2. Apply the informal substitutions when that style is enabled.
//  3. If the response runs past the word cap, keep only the first two
//     sentences. The cut is a hard cap, not a summary.
func (c *Composer) Enhance(raw string) string {
	resp := strings.TrimSpace(raw)
	if resp == "" {
		return resp
	}

	if c.UserName != "" && !strings.HasPrefix(resp, c.UserName) {
		resp = c.UserName + ", " + resp
	}

	if c.Informal {
		for _, sub := range informalSubstitutions {
			resp = strings.ReplaceAll(resp, sub[0], sub[1])
		}
	}

	if len(strings.Fields(resp)) > maxResponseWords {
		sentences := strings.Split(resp, ". ")
		if len(sentences) > 2 {
			resp = strings.Join(sentences[:2], ". ") + "."
		}
	}

	return resp
}

// Acknowledgement returns a random short phrase confirming the assistant
// heard the utterance.
func (c *Composer) Acknowledgement() string {
	return acknowledgements[c.intN(len(acknowledgements))]
}

// ProcessingPhrase returns a random "still working" phrase for the flavor.
func (c *Composer) ProcessingPhrase(f Flavor) string {
	bank, ok := processingPhrases[f]
	if !ok {
		bank = processingPhrases[FlavorGeneric]
	}
	return bank[c.intN(len(bank))]
}

// SniffFlavor picks the interim-phrase flavor by keyword inspection of the
// utterance.
func SniffFlavor(utterance string) Flavor {
	low := strings.ToLower(utterance)
	if strings.Contains(low, "search") || strings.Contains(low, "information") {
		return FlavorSearch
	}
	return FlavorGeneric
}

// Greeting returns a time-of-day greeting.
func (c *Composer) Greeting() string {
	hour := c.clock()().Hour()
	switch {
	case hour >= 5 && hour < 12:
		return "Good morning"
	case hour >= 12 && hour < 19:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

func (c *Composer) intN(n int) int {
	if c.rng != nil {
		return c.rng.IntN(n)
	}
	return rand.IntN(n)
}

func (c *Composer) clock() func() time.Time {
	if c.now != nil {
		return c.now
	}
	return time.Now
}
