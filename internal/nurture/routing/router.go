// Package routing applies a classified inbound intent to a lead's
// nurture state.
package routing

import (
	"fmt"
	"time"

	"nurture_backend/internal/nurture/domain"
	"nurture_backend/internal/nurture/intent"

	"github.com/google/uuid"
)

// longTermDelay is how far out a NOT_NOW reply reschedules the lead.
const longTermDelay = 30 * 24 * time.Hour

// LeadSnapshot is the read-only view of a lead the router decides on.
type LeadSnapshot struct {
	ID              uuid.UUID
	FirstName       string
	AssignedAgentID *uuid.UUID
	Status          domain.Status
	Stage           domain.Stage
	NextNurtureAt   *time.Time
	LockedUntil     *time.Time
}

// TaskDraft describes a follow-up task the caller should persist.
type TaskDraft struct {
	LeadID     uuid.UUID
	AssignedTo *uuid.UUID
	Title      string
	Notes      string
	Priority   string
	DueAt      time.Time
}

// Decision is the state write the caller should apply. When Changed is
// false nothing is written and the other fields are meaningless.
type Decision struct {
	Changed       bool
	Status        domain.Status
	Stage         *domain.Stage
	NextNurtureAt *time.Time
	LockedUntil   *time.Time
	Task          *TaskDraft
}

// Router decides nurture-state transitions. The clock is injectable so
// tests can pin NOT_NOW reschedules and task due times.
type Router struct {
	now func() time.Time
}

// NewRouter builds a router. A nil now uses time.Now.
func NewRouter(now func() time.Time) *Router {
	if now == nil {
		now = time.Now
	}
	return &Router{now: now}
}

// Route maps the intent to a state write. The transition depends only on
// the intent, so replaying the same intent against the resulting state
// yields the same state again. Task creation is not deduplicated here;
// the webhook handler routes at most once per persisted message.
func (r *Router) Route(lead LeadSnapshot, res intent.Result) Decision {
	switch res.Intent {
	case intent.IntentStop:
		return Decision{Changed: true, Status: domain.StatusStopped}

	case intent.IntentPositive:
		now := r.now()
		name := lead.FirstName
		if name == "" {
			name = "lead"
		}
		return Decision{
			Changed: true,
			Status:  domain.StatusEngaged,
			Task: &TaskDraft{
				LeadID:     lead.ID,
				AssignedTo: lead.AssignedAgentID,
				Title:      "Follow up with " + name,
				Notes:      fmt.Sprintf("Lead replied: %q", res.Text),
				Priority:   "high",
				DueAt:      now,
			},
		}

	case intent.IntentNotNow:
		next := r.now().Add(longTermDelay)
		st := domain.StageLongTerm
		return Decision{
			Changed:       true,
			Status:        domain.StatusActive,
			Stage:         &st,
			NextNurtureAt: &next,
		}

	case intent.IntentNegative:
		return Decision{Changed: true, Status: domain.StatusClosed}

	default:
		// QUESTION is reserved and UNKNOWN carries no signal; the message
		// is already persisted, the lead stays as it was.
		return Decision{Changed: false}
	}
}
