package intent

// Category names a keyword list in the classifier vocabulary.
type Category string

const (
	CategoryStop            Category = "STOP"
	CategoryContactNegation Category = "CONTACT_NEGATION"
	CategoryDelay           Category = "DELAY"
	CategoryAppointment     Category = "APPOINTMENT"
	CategoryCall            Category = "CALL"
	CategoryValuation       Category = "VALUATION"
	CategoryAffirmative     Category = "AFFIRMATIVE"
	CategoryNegative        Category = "NEGATIVE"
)

// Vocabulary maps each category to its phrase list. Phrases are matched
// against normalized text: single words match tokens, multi-word phrases
// match as substrings of the cleaned message.
type Vocabulary map[Category][]string

// DefaultVocabulary returns the built-in keyword lists. Deployments can
// override individual categories from the settings file.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		CategoryStop: {
			"stop", "unsubscribe", "cancel", "end", "quit", "remove",
			"do not text", "dont text", "stop texting", "opt out", "optout",
		},
		CategoryContactNegation: {
			"prefer text", "text only", "text is fine", "just text", "texting is fine",
			"stop calling",
		},
		CategoryDelay: {
			"later", "not yet", "not now", "next month", "next year",
			"few months", "down the road", "not until", "not ready",
			"in the spring", "in the fall", "maybe later", "check back",
		},
		CategoryAppointment: {
			"tomorrow", "today", "tonight", "appointment", "schedule",
			"monday", "tuesday", "wednesday", "thursday", "friday",
			"saturday", "sunday", "this week", "next week", "morning",
			"afternoon", "evening", "meet", "showing", "come by", "stop by",
		},
		CategoryCall: {
			"call", "phone", "ring", "call me", "give me a call", "talk",
		},
		CategoryValuation: {
			"worth", "value", "valuation", "price", "estimate", "cma",
			"how much", "market value", "appraisal",
		},
		CategoryAffirmative: {
			"yes", "yeah", "yep", "yup", "sure", "ok", "okay",
			"i'm interested", "im interested", "definitely", "absolutely",
			"sounds good", "yes please",
		},
		CategoryNegative: {
			"no thanks", "no thank you", "not interested", "stop bothering",
			"leave me alone", "wrong number", "already sold", "not selling",
			"go away", "nope", "stop texting", "stop messaging",
		},
	}
}

// Merge returns a copy of v with any non-empty lists from override
// replacing the corresponding category.
func (v Vocabulary) Merge(override Vocabulary) Vocabulary {
	merged := make(Vocabulary, len(v))
	for cat, phrases := range v {
		merged[cat] = phrases
	}
	for cat, phrases := range override {
		if len(phrases) > 0 {
			merged[cat] = phrases
		}
	}
	return merged
}
