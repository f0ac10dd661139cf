package stage

import (
	"strings"
	"testing"
	"time"

	"nurture_backend/internal/nurture/domain"
	"nurture_backend/platform/apperr"
)

func fixedJitter(d time.Duration) func() time.Duration {
	return func() time.Duration { return d }
}

func TestNextAdvancesThroughSequence(t *testing.T) {
	p := NewPolicy(time.UTC, fixedJitter(0))

	cases := []struct {
		current domain.Stage
		next    domain.Stage
		offset  time.Duration
	}{
		{domain.StageDay1, domain.StageDay2, 24 * time.Hour},
		{domain.StageDay2, domain.StageDay3, 24 * time.Hour},
		{domain.StageDay3, domain.StageDay5, 48 * time.Hour},
		{domain.StageDay5, domain.StageDay7, 48 * time.Hour},
	}
	// Noon keeps the unjittered target inside the send window.
	sentAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for _, tc := range cases {
		adv := p.Next(tc.current, sentAt)
		if adv == nil {
			t.Fatalf("Next(%s) = nil, want advance", tc.current)
		}
		if adv.Stage != tc.next {
			t.Errorf("Next(%s).Stage = %s, want %s", tc.current, adv.Stage, tc.next)
		}
		if want := sentAt.Add(tc.offset); !adv.SendAt.Equal(want) {
			t.Errorf("Next(%s).SendAt = %v, want %v", tc.current, adv.SendAt, want)
		}
	}
}

func TestNextTerminalStages(t *testing.T) {
	p := NewPolicy(time.UTC, nil)
	sentAt := time.Now()

	for _, s := range []domain.Stage{domain.StageDay7, domain.StageLongTerm, domain.Stage("BOGUS"), ""} {
		if adv := p.Next(s, sentAt); adv != nil {
			t.Errorf("Next(%q) = %+v, want nil", s, adv)
		}
	}
}

func TestNextJitterRange(t *testing.T) {
	p := NewPolicy(time.UTC, nil)
	sentAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	lo := sentAt.Add(24*time.Hour + 15*time.Minute)
	hi := sentAt.Add(24*time.Hour + 65*time.Minute)
	for i := 0; i < 200; i++ {
		adv := p.Next(domain.StageDay1, sentAt)
		if adv.SendAt.Before(lo) || adv.SendAt.After(hi) {
			t.Fatalf("SendAt %v outside jitter range [%v, %v]", adv.SendAt, lo, hi)
		}
	}
}

func TestClampBusinessHours(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatal(err)
	}
	p := NewPolicy(loc, fixedJitter(0))

	cases := []struct {
		name   string
		sentAt time.Time
		want   time.Time
	}{
		{
			// Target 03:30 local snaps forward to 09:15 the same day.
			name:   "before window",
			sentAt: time.Date(2024, 6, 1, 3, 30, 0, 0, loc),
			want:   time.Date(2024, 6, 2, 9, 15, 0, 0, loc),
		},
		{
			// Target 21:00 local snaps to 09:15 the next day.
			name:   "after window",
			sentAt: time.Date(2024, 6, 1, 21, 0, 0, 0, loc),
			want:   time.Date(2024, 6, 3, 9, 15, 0, 0, loc),
		},
		{
			// Target exactly 20:00 is outside the half-open window.
			name:   "at window end",
			sentAt: time.Date(2024, 6, 1, 20, 0, 0, 0, loc),
			want:   time.Date(2024, 6, 3, 9, 15, 0, 0, loc),
		},
		{
			name:   "inside window",
			sentAt: time.Date(2024, 6, 1, 14, 0, 0, 0, loc),
			want:   time.Date(2024, 6, 2, 14, 0, 0, 0, loc),
		},
		{
			// Target exactly 09:15 is inside the window.
			name:   "at window start",
			sentAt: time.Date(2024, 6, 1, 9, 15, 0, 0, loc),
			want:   time.Date(2024, 6, 2, 9, 15, 0, 0, loc),
		},
	}
	for _, tc := range cases {
		adv := p.Next(domain.StageDay1, tc.sentAt)
		if adv == nil {
			t.Fatalf("%s: nil advance", tc.name)
		}
		if !adv.SendAt.Equal(tc.want) {
			t.Errorf("%s: SendAt = %v, want %v", tc.name, adv.SendAt, tc.want)
		}
	}
}

func TestClampNeverMovesBackward(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatal(err)
	}
	p := NewPolicy(loc, nil)

	sentAt := time.Date(2024, 3, 9, 23, 45, 0, 0, loc) // crosses a DST boundary
	for i := 0; i < 100; i++ {
		adv := p.Next(domain.StageDay1, sentAt)
		if adv.SendAt.Before(sentAt.Add(24 * time.Hour)) {
			t.Fatalf("SendAt %v earlier than unjittered target", adv.SendAt)
		}
	}
}

func TestNextFromString(t *testing.T) {
	p := NewPolicy(time.UTC, fixedJitter(0))

	adv, err := p.NextFromString(domain.StageDay1, "2024-01-01T12:00:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adv == nil || adv.Stage != domain.StageDay2 {
		t.Fatalf("got %+v, want DAY_2 advance", adv)
	}

	_, err = p.NextFromString(domain.StageDay1, "yesterday-ish")
	if err == nil {
		t.Fatal("expected error for unparseable timestamp")
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("error kind = %v, want validation", err)
	}

	adv, err = p.NextFromString(domain.StageDay7, "2024-01-01T12:00:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adv != nil {
		t.Errorf("DAY_7 advance = %+v, want nil", adv)
	}
}

func TestRenderTemplates(t *testing.T) {
	tmpls := DefaultTemplates()

	body, ok := tmpls.Render(domain.StageDay1, "Maria")
	if !ok {
		t.Fatal("no template for DAY_1")
	}
	if !strings.Contains(body, "Maria") {
		t.Errorf("rendered body missing name: %q", body)
	}

	body, ok = tmpls.Render(domain.StageDay2, "  ")
	if !ok {
		t.Fatal("no template for DAY_2")
	}
	if !strings.Contains(body, "there") {
		t.Errorf("blank name should fall back to \"there\": %q", body)
	}

	if _, ok := tmpls.Render(domain.Stage("BOGUS"), "x"); ok {
		t.Error("unknown stage should have no template")
	}
}
