// Package stage implements the drip sequence timing policy: which stage
// follows which, randomized jitter, and the business-hours send window.
package stage

import (
	"fmt"
	"math/rand"
	"time"

	"nurture_backend/internal/nurture/domain"
	"nurture_backend/platform/apperr"
)

// successors maps each stage to its next stage and the offset from the
// last send. Stages absent from the map are terminal.
var successors = map[domain.Stage]struct {
	next   domain.Stage
	offset time.Duration
}{
	domain.StageDay1: {domain.StageDay2, 24 * time.Hour},
	domain.StageDay2: {domain.StageDay3, 24 * time.Hour},
	domain.StageDay3: {domain.StageDay5, 48 * time.Hour},
	domain.StageDay5: {domain.StageDay7, 48 * time.Hour},
}

// Send window bounds in the lead's local time.
const (
	windowStartHour   = 9
	windowStartMinute = 15
	windowEndHour     = 20
)

// Advance is the computed successor for a lead after a send.
type Advance struct {
	Stage  domain.Stage
	SendAt time.Time
}

// Policy computes stage advances. The jitter source is injectable so
// tests can pin it.
type Policy struct {
	loc    *time.Location
	jitter func() time.Duration
}

// NewPolicy builds a policy for the given local timezone. A nil jitter
// uses the default 15 to 65 minute uniform offset.
func NewPolicy(loc *time.Location, jitter func() time.Duration) *Policy {
	if loc == nil {
		loc = time.UTC
	}
	if jitter == nil {
		jitter = defaultJitter
	}
	return &Policy{loc: loc, jitter: jitter}
}

func defaultJitter() time.Duration {
	return time.Duration(15+rand.Intn(51)) * time.Minute
}

// Next returns the successor stage and send time after a send at sentAt,
// or nil when the stage is terminal. Unknown stages are terminal too.
func (p *Policy) Next(current domain.Stage, sentAt time.Time) *Advance {
	succ, ok := successors[current]
	if !ok {
		return nil
	}
	target := sentAt.Add(succ.offset).Add(p.jitter())
	return &Advance{Stage: succ.next, SendAt: p.clamp(target)}
}

// NextFromString parses lastSentAt as RFC 3339 before advancing. A bad
// timestamp is a validation error, never a crash.
func (p *Policy) NextFromString(current domain.Stage, lastSentAt string) (*Advance, error) {
	sentAt, err := time.Parse(time.RFC3339, lastSentAt)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, fmt.Sprintf("invalid last-sent timestamp %q", lastSentAt), err)
	}
	return p.Next(current, sentAt), nil
}

// clamp moves t into the [09:15, 20:00) local send window: too early
// snaps to 09:15 the same day, at or past 20:00 snaps to 09:15 the next
// day. Times inside the window pass through unchanged.
func (p *Policy) clamp(t time.Time) time.Time {
	local := t.In(p.loc)
	y, m, d := local.Date()
	start := time.Date(y, m, d, windowStartHour, windowStartMinute, 0, 0, p.loc)
	end := time.Date(y, m, d, windowEndHour, 0, 0, 0, p.loc)

	switch {
	case local.Before(start):
		return start
	case !local.Before(end):
		return start.AddDate(0, 0, 1)
	default:
		return local
	}
}
