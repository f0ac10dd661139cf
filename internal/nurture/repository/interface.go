package repository

import (
	"context"
	"time"

	"nurture_backend/internal/nurture/domain"
	"nurture_backend/internal/nurture/routing"

	"github.com/google/uuid"
)

// SweepStore is what the sweep scheduler needs from storage.
type SweepStore interface {
	// ClaimDue atomically claims up to limit due leads by setting a short
	// lock, so overlapping sweeps never select the same lead twice.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]Lead, error)
	// ReleaseClaim drops the claim lock so the lead is due again on the
	// next sweep. Used when the send fails.
	ReleaseClaim(ctx context.Context, leadID uuid.UUID) error
	// RecordSend persists the outbound message and advances the lead in
	// one transaction. A nil advance ends the sequence.
	RecordSend(ctx context.Context, p RecordSendParams) error
	// DisableNurture clears the schedule for a lead whose data can never
	// send (bad phone, missing template).
	DisableNurture(ctx context.Context, leadID uuid.UUID, reason string) error
}

// RouteStore is what the inbound webhook needs to apply router decisions.
type RouteStore interface {
	// GetByPhone finds the lead whose normalized phone matches.
	GetByPhone(ctx context.Context, phone string) (Lead, error)
	// ApplyDecision writes the router's state transition.
	ApplyDecision(ctx context.Context, leadID uuid.UUID, d routing.Decision) error
}

// MessageStore persists communication records.
type MessageStore interface {
	InsertMessage(ctx context.Context, p InsertMessageParams) (uuid.UUID, error)
	ListByLead(ctx context.Context, leadID uuid.UUID, limit int) ([]Message, error)
}

// TaskStore persists follow-up tasks.
type TaskStore interface {
	InsertTask(ctx context.Context, draft routing.TaskDraft) (uuid.UUID, error)
}

// SnoozeStore is what the snooze expirer needs.
type SnoozeStore interface {
	// ListExpiredSnoozes returns snoozed leads whose lock elapsed,
	// oldest expiry first.
	ListExpiredSnoozes(ctx context.Context, now time.Time, limit int) ([]Lead, error)
	// ReleaseSnoozes reschedules the given leads for immediate pickup in
	// one batch update.
	ReleaseSnoozes(ctx context.Context, leadIDs []uuid.UUID, now time.Time) (int64, error)
}

// RecordSendParams carries everything RecordSend writes.
type RecordSendParams struct {
	LeadID            uuid.UUID
	Body              string
	ProviderMessageID string
	SentAt            time.Time
	// Stage and NextNurtureAt come from the timing policy. NextNurtureAt
	// nil means terminal: the lead drops out of future sweeps.
	Stage         domain.Stage
	NextNurtureAt *time.Time
}

// InsertMessageParams describes one message row. LeadID is nil for
// inbound texts from numbers that match no lead.
type InsertMessageParams struct {
	LeadID            *uuid.UUID
	Direction         string
	Channel           string
	Body              string
	IsAuto            bool
	ProviderMessageID string
}
