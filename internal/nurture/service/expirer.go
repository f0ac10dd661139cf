package service

import (
	"context"
	"time"

	"nurture_backend/internal/nurture/repository"
	"nurture_backend/platform/logger"

	"github.com/google/uuid"
)

// ExpiredSnooze describes one lead whose snooze lock has elapsed.
type ExpiredSnooze struct {
	LeadID      uuid.UUID  `json:"leadId"`
	FirstName   string     `json:"firstName"`
	LockedUntil *time.Time `json:"lockedUntil"`
}

// ExpireReport summarizes one expirer run.
type ExpireReport struct {
	Matched  []ExpiredSnooze `json:"matched"`
	Released int64           `json:"released"`
	DryRun   bool            `json:"dryRun"`
}

// Expirer releases snoozed leads back into the sweep pool once their
// lock elapses. It reschedules only; status stays SNOOZED until the
// next successful send.
type Expirer struct {
	store     repository.SnoozeStore
	log       *logger.Logger
	batchSize int
	now       func() time.Time
}

// NewExpirer wires an expirer. A nil now uses time.Now.
func NewExpirer(store repository.SnoozeStore, log *logger.Logger, batchSize int, now func() time.Time) *Expirer {
	if batchSize < 1 {
		batchSize = 100
	}
	if now == nil {
		now = time.Now
	}
	return &Expirer{store: store, log: log, batchSize: batchSize, now: now}
}

// RunOnce finds expired snoozes and, when apply is true, reschedules
// them for immediate sweep pickup in one batch update. With apply false
// it only lists the matches.
func (e *Expirer) RunOnce(ctx context.Context, apply bool) (ExpireReport, error) {
	now := e.now()
	report := ExpireReport{DryRun: !apply}

	leads, err := e.store.ListExpiredSnoozes(ctx, now, e.batchSize)
	if err != nil {
		e.log.DatabaseError("list expired snoozes", err)
		return report, err
	}
	for _, l := range leads {
		report.Matched = append(report.Matched, ExpiredSnooze{
			LeadID:      l.ID,
			FirstName:   l.FirstName,
			LockedUntil: l.NurtureLockedTil,
		})
	}
	if !apply || len(leads) == 0 {
		return report, nil
	}

	ids := make([]uuid.UUID, len(leads))
	for i, l := range leads {
		ids[i] = l.ID
	}
	released, err := e.store.ReleaseSnoozes(ctx, ids, now)
	if err != nil {
		e.log.DatabaseError("release snoozes", err)
		return report, err
	}
	report.Released = released

	e.log.Info("snooze expirations released", "matched", len(leads), "released", released)
	return report, nil
}
