package intent

import "testing"

func TestClassifyStopWinsOverEverything(t *testing.T) {
	c := NewClassifier(DefaultVocabulary())

	cases := []string{
		"STOP",
		"stop",
		"  Stop  ",
		"UNSUBSCRIBE",
		"quit",
		"Do not text",
		"opt out",
	}
	for _, text := range cases {
		got := c.Classify(text)
		if got.Intent != IntentStop {
			t.Errorf("Classify(%q) = %s, want STOP", text, got.Intent)
		}
	}
}

func TestClassifyStopRequiresWholeMessage(t *testing.T) {
	c := NewClassifier(DefaultVocabulary())

	// "stop" embedded in a longer message is a decline, not an opt-out.
	got := c.Classify("stop bothering me")
	if got.Intent != IntentNegative {
		t.Errorf("Classify(\"stop bothering me\") = %s, want NEGATIVE", got.Intent)
	}
}

func TestClassifyContactNegation(t *testing.T) {
	c := NewClassifier(DefaultVocabulary())

	cases := []string{
		"please don't call me, text is fine",
		"don't call",
		"no calls please, just phone me never... actually don't phone",
		"can't talk, prefer text",
		"text only",
		"please stop calling me",
		"no calls after 6 please",
	}
	for _, text := range cases {
		got := c.Classify(text)
		if got.Intent != IntentNotNow {
			t.Errorf("Classify(%q) = %s, want NOT_NOW", text, got.Intent)
		}
	}
}

func TestClassifyNegationWindowBounded(t *testing.T) {
	c := NewClassifier(DefaultVocabulary())

	// Negation more than three tokens before "call" does not count; falls
	// through to the call-request bucket.
	got := c.Classify("no pressure at all whenever you want call anytime")
	if got.Intent != IntentPositive {
		t.Errorf("got %s, want POSITIVE", got.Intent)
	}
}

func TestClassifyAffirmativeThenDelay(t *testing.T) {
	c := NewClassifier(DefaultVocabulary())

	got := c.Classify("yes but not until spring")
	if got.Intent != IntentNotNow {
		t.Errorf("Classify(\"yes but not until spring\") = %s, want NOT_NOW", got.Intent)
	}

	// Delay preceding the affirmative does not trigger the rule; the
	// affirmative bucket catches it instead.
	got = c.Classify("spring is when, yes")
	if got.Intent != IntentPositive {
		t.Errorf("Classify(\"spring is when, yes\") = %s, want POSITIVE", got.Intent)
	}
}

func TestClassifyBucketPriority(t *testing.T) {
	c := NewClassifier(DefaultVocabulary())

	cases := []struct {
		text string
		want Intent
	}{
		// Appointment keyword outranks the call bucket.
		{"can you call me tomorrow", IntentPositive},
		{"what's my home worth", IntentPositive},
		{"yes I'm interested", IntentPositive},
		{"let's schedule a showing", IntentPositive},
		{"give me a call", IntentPositive},
		{"yes please", IntentPositive},
		{"not interested", IntentNegative},
		{"wrong number", IntentNegative},
		{"no thanks", IntentNegative},
		// A texting complaint is a decline, not interest; bare politeness
		// words must not drag it into the affirmative bucket.
		{"please stop texting me", IntentNegative},
		{"stop messaging me", IntentNegative},
	}
	for _, tc := range cases {
		got := c.Classify(tc.text)
		if got.Intent != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.text, got.Intent, tc.want)
		}
	}
}

func TestClassifyUnknown(t *testing.T) {
	c := NewClassifier(DefaultVocabulary())

	cases := []string{
		"",
		"   ",
		"???",
		"who is this",
		"k wait what address did you mean",
	}
	for _, text := range cases {
		got := c.Classify(text)
		if got.Intent != IntentUnknown {
			t.Errorf("Classify(%q) = %s, want UNKNOWN", text, got.Intent)
		}
	}
}

func TestClassifyPreservesOriginalText(t *testing.T) {
	c := NewClassifier(DefaultVocabulary())

	text := "  YES please!  "
	got := c.Classify(text)
	if got.Text != text {
		t.Errorf("Result.Text = %q, want original %q", got.Text, text)
	}
}

func TestVocabularyMerge(t *testing.T) {
	base := DefaultVocabulary()
	merged := base.Merge(Vocabulary{
		CategoryStop: {"basta"},
	})
	c := NewClassifier(merged)

	if got := c.Classify("basta"); got.Intent != IntentStop {
		t.Errorf("Classify(\"basta\") = %s, want STOP after override", got.Intent)
	}
	if got := c.Classify("stop"); got.Intent == IntentStop {
		t.Errorf("Classify(\"stop\") = STOP, want override to replace the list")
	}
}
