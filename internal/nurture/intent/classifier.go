// Package intent classifies inbound SMS text into a nurture intent.
package intent

import "strings"

// Intent is the classified purpose of an inbound reply.
type Intent string

const (
	// IntentStop is an opt-out. Compliance: always wins over any other signal.
	IntentStop Intent = "STOP"
	// IntentPositive indicates interest and escalates to a human task.
	IntentPositive Intent = "POSITIVE"
	// IntentNotNow keeps automation running on a long-term cadence without
	// escalating.
	IntentNotNow Intent = "NOT_NOW"
	// IntentNegative indicates a decline and closes the sequence.
	IntentNegative Intent = "NEGATIVE"
	// IntentQuestion is reserved. No detector produces it yet; questions
	// fall through to IntentUnknown.
	IntentQuestion Intent = "QUESTION"
	// IntentUnknown means no rule matched. The router leaves the lead unchanged.
	IntentUnknown Intent = "UNKNOWN"
)

// Result pairs the classified intent with the original text, which the
// router quotes into follow-up task notes.
type Result struct {
	Intent Intent
	Text   string
}

// negationTokens and channelTokens drive the negation-of-contact scan.
// These are part of the algorithm rather than the configurable vocabulary.
var negationTokens = map[string]bool{
	"don't": true, "dont": true, "no": true, "not": true,
	"can't": true, "cant": true, "never": true,
	"won't": true, "wont": true,
}

var channelTokens = map[string]bool{
	"call": true, "calls": true, "calling": true, "phone": true, "ring": true,
}

// negationWindow is how many tokens before a channel token a negation may
// appear and still count.
const negationWindow = 3

// Classifier maps raw inbound text to an intent. It is deterministic,
// never fails, and holds no mutable state.
type Classifier struct {
	vocab Vocabulary
}

// NewClassifier builds a classifier over the given vocabulary. Pass
// DefaultVocabulary() unless the settings file overrides it.
func NewClassifier(vocab Vocabulary) *Classifier {
	return &Classifier{vocab: vocab}
}

// Classify applies the matching rules in fixed priority order and returns
// the first hit. Empty or whitespace-only text is IntentUnknown.
func (c *Classifier) Classify(text string) Result {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Result{Intent: IntentUnknown, Text: text}
	}
	cleaned := strings.Join(tokens, " ")

	// Opt-out check runs first and only matches the whole message, so
	// "stop bothering me" is a decline, not an opt-out.
	for _, phrase := range c.vocab[CategoryStop] {
		if cleaned == phrase {
			return Result{Intent: IntentStop, Text: text}
		}
	}

	if c.hasContactNegation(tokens, cleaned) {
		return Result{Intent: IntentNotNow, Text: text}
	}

	if c.affirmativeThenDelay(tokens) {
		return Result{Intent: IntentNotNow, Text: text}
	}

	// Buckets in strength order. All four map to POSITIVE but the order
	// matters for overlap: "can you call me tomorrow" is appointment-seeking,
	// not a bare call request.
	for _, cat := range []Category{CategoryAppointment, CategoryCall, CategoryValuation, CategoryAffirmative} {
		if matchesAny(tokens, cleaned, c.vocab[cat]) {
			return Result{Intent: IntentPositive, Text: text}
		}
	}

	if matchesAny(tokens, cleaned, c.vocab[CategoryNegative]) {
		return Result{Intent: IntentNegative, Text: text}
	}

	return Result{Intent: IntentUnknown, Text: text}
}

// hasContactNegation detects "negation shortly before a call/phone token"
// via a sliding window over tokens, plus standalone prefer-text phrases.
func (c *Classifier) hasContactNegation(tokens []string, cleaned string) bool {
	for i, tok := range tokens {
		if !channelTokens[tok] {
			continue
		}
		start := i - negationWindow
		if start < 0 {
			start = 0
		}
		for j := start; j < i; j++ {
			if negationTokens[tokens[j]] {
				return true
			}
		}
	}
	for _, phrase := range c.vocab[CategoryContactNegation] {
		if strings.Contains(cleaned, phrase) {
			return true
		}
	}
	return false
}

// affirmativeThenDelay reports whether an affirmative token is followed,
// strictly later in the message, by a delay phrase. "yes but not until
// spring" counts; "spring is when, yes" does not.
func (c *Classifier) affirmativeThenDelay(tokens []string) bool {
	affirmAt := -1
	for _, phrase := range c.vocab[CategoryAffirmative] {
		if at := phraseIndex(tokens, phrase); at >= 0 && (affirmAt < 0 || at < affirmAt) {
			affirmAt = at
		}
	}
	if affirmAt < 0 {
		return false
	}
	for _, phrase := range c.vocab[CategoryDelay] {
		if at := phraseIndex(tokens, phrase); at > affirmAt {
			return true
		}
	}
	return false
}

// matchesAny reports whether any phrase matches: single words against
// tokens, multi-word phrases as substrings of the cleaned text.
func matchesAny(tokens []string, cleaned string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.ContainsRune(phrase, ' ') {
			if strings.Contains(cleaned, phrase) {
				return true
			}
			continue
		}
		for _, tok := range tokens {
			if tok == phrase {
				return true
			}
		}
	}
	return false
}

// phraseIndex returns the token index where phrase begins, or -1.
func phraseIndex(tokens []string, phrase string) int {
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return -1
	}
outer:
	for i := 0; i+len(words) <= len(tokens); i++ {
		for j, w := range words {
			if tokens[i+j] != w {
				continue outer
			}
		}
		return i
	}
	return -1
}

// tokenize lowercases, splits on whitespace, and strips surrounding
// punctuation from each token. Internal apostrophes survive so
// contractions like "don't" stay intact.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, isPunct)
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isPunct(r rune) bool {
	switch r {
	case '.', ',', '!', '?', ';', ':', '"', '\'', '(', ')', '[', ']', '-', '_':
		return true
	}
	return false
}
