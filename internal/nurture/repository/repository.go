// Package repository is the Postgres persistence layer for the nurture
// engine: leads, messages, and follow-up tasks.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nurture_backend/internal/nurture/domain"
	"nurture_backend/internal/nurture/routing"
	"nurture_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const leadNotFoundMessage = "lead not found"

// claimDuration is how long a sweep claim holds a lead. A crashed sweep
// leaves the lead claimable again once this elapses.
const claimDuration = 2 * time.Minute

// Lead is the nurture view of a lead row.
type Lead struct {
	ID               uuid.UUID
	FirstName        string
	LastName         string
	Phone            string
	AssignedAgentID  *uuid.UUID
	NurtureStatus    domain.Status
	NurtureStage     domain.Stage
	NextNurtureAt    *time.Time
	LastNurtureSent  *time.Time
	NurtureLockedTil *time.Time
}

// Snapshot converts a row into the router's input view.
func (l Lead) Snapshot() routing.LeadSnapshot {
	return routing.LeadSnapshot{
		ID:              l.ID,
		FirstName:       l.FirstName,
		AssignedAgentID: l.AssignedAgentID,
		Status:          l.NurtureStatus,
		Stage:           l.NurtureStage,
		NextNurtureAt:   l.NextNurtureAt,
		LockedUntil:     l.NurtureLockedTil,
	}
}

// Repo implements all nurture store interfaces over one pgx pool.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates the nurture repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time checks that Repo satisfies the segregated interfaces.
var (
	_ SweepStore   = (*Repo)(nil)
	_ RouteStore   = (*Repo)(nil)
	_ MessageStore = (*Repo)(nil)
	_ TaskStore    = (*Repo)(nil)
	_ SnoozeStore  = (*Repo)(nil)
)

const leadColumns = `id, first_name, last_name, phone, assigned_agent_id,
	nurture_status, nurture_stage, next_nurture_at, last_nurture_sent_at, nurture_locked_until`

const leadColumnsAliased = `l.id, l.first_name, l.last_name, l.phone, l.assigned_agent_id,
	l.nurture_status, l.nurture_stage, l.next_nurture_at, l.last_nurture_sent_at, l.nurture_locked_until`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	var status, stage string
	err := row.Scan(
		&l.ID, &l.FirstName, &l.LastName, &l.Phone, &l.AssignedAgentID,
		&status, &stage, &l.NextNurtureAt, &l.LastNurtureSent, &l.NurtureLockedTil,
	)
	if err != nil {
		return Lead{}, err
	}
	l.NurtureStatus = domain.Status(status)
	l.NurtureStage = domain.Stage(stage)
	return l, nil
}

// ClaimDue selects due leads and locks them for claimDuration in one
// statement. SNOOZED leads whose expired lock was cleared by the expirer
// qualify too; their status is normalized to ACTIVE on the next
// successful send. FOR UPDATE SKIP LOCKED keeps concurrent sweeps from
// claiming the same rows.
func (r *Repo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]Lead, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, apperr.Store("begin claim transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `WITH due AS (
		SELECT id
		FROM leads
		WHERE nurture_status IN ('ACTIVE', 'SNOOZED')
		  AND next_nurture_at IS NOT NULL
		  AND next_nurture_at <= $1
		  AND (nurture_locked_until IS NULL OR nurture_locked_until <= $1)
		ORDER BY next_nurture_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	)
	UPDATE leads l
	SET nurture_locked_until = $3, updated_at = now()
	FROM due
	WHERE l.id = due.id
	RETURNING `+leadColumnsAliased, now, limit, now.Add(claimDuration))
	if err != nil {
		return nil, apperr.Store("claim due leads", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, apperr.Store("scan claimed lead", err)
		}
		leads = append(leads, l)
	}
	if rows.Err() != nil {
		return nil, apperr.Store("iterate claimed leads", rows.Err())
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Store("commit claim", err)
	}
	return leads, nil
}

// ReleaseClaim clears the sweep lock so the lead stays due.
func (r *Repo) ReleaseClaim(ctx context.Context, leadID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE leads SET nurture_locked_until = NULL, updated_at = now() WHERE id = $1`,
		leadID,
	)
	if err != nil {
		return apperr.Store("release claim", err)
	}
	return nil
}

// RecordSend logs the outbound message and advances the lead in one
// transaction. The advance clears the claim lock and normalizes status
// to ACTIVE, which folds resumed snoozes back into the normal pool.
func (r *Repo) RecordSend(ctx context.Context, p RecordSendParams) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return apperr.Store("begin record-send transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO messages (lead_id, direction, channel, body, is_auto, provider_message_id)
		 VALUES ($1, 'OUTBOUND', 'sms', $2, TRUE, $3)`,
		p.LeadID, p.Body, p.ProviderMessageID,
	)
	if err != nil {
		return apperr.Store("insert outbound message", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE leads
		 SET nurture_status = 'ACTIVE',
		     nurture_stage = $2,
		     last_nurture_sent_at = $3,
		     next_nurture_at = $4,
		     nurture_locked_until = NULL,
		     updated_at = now()
		 WHERE id = $1`,
		p.LeadID, string(p.Stage), p.SentAt, p.NextNurtureAt,
	)
	if err != nil {
		return apperr.Store("advance lead", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Store("commit record-send", err)
	}
	return nil
}

// DisableNurture clears the schedule so the lead is never selected
// again until an operator intervenes. Status is left alone.
func (r *Repo) DisableNurture(ctx context.Context, leadID uuid.UUID, reason string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE leads
		 SET next_nurture_at = NULL, nurture_locked_until = NULL, updated_at = now()
		 WHERE id = $1`,
		leadID,
	)
	if err != nil {
		return apperr.Store(fmt.Sprintf("disable nurture (%s)", reason), err)
	}
	return nil
}

// GetByPhone matches an inbound sender to a lead.
func (r *Repo) GetByPhone(ctx context.Context, phone string) (Lead, error) {
	l, err := scanLead(r.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE phone = $1`, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, apperr.Store("get lead by phone", err)
	}
	return l, nil
}

// ApplyDecision writes a router decision. No-op decisions are the
// caller's job to skip.
func (r *Repo) ApplyDecision(ctx context.Context, leadID uuid.UUID, d routing.Decision) error {
	var stage *string
	if d.Stage != nil {
		s := string(*d.Stage)
		stage = &s
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE leads
		 SET nurture_status = $2,
		     nurture_stage = COALESCE($3, nurture_stage),
		     next_nurture_at = $4,
		     nurture_locked_until = $5,
		     updated_at = now()
		 WHERE id = $1`,
		leadID, string(d.Status), stage, d.NextNurtureAt, d.LockedUntil,
	)
	if err != nil {
		return apperr.Store("apply routing decision", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}
	return nil
}

// ListExpiredSnoozes returns snoozed leads whose lock has elapsed,
// oldest expiry first.
func (r *Repo) ListExpiredSnoozes(ctx context.Context, now time.Time, limit int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+leadColumns+`
		 FROM leads
		 WHERE nurture_status = 'SNOOZED'
		   AND nurture_locked_until IS NOT NULL
		   AND nurture_locked_until <= $1
		 ORDER BY nurture_locked_until ASC
		 LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, apperr.Store("list expired snoozes", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, apperr.Store("scan snoozed lead", err)
		}
		leads = append(leads, l)
	}
	if rows.Err() != nil {
		return nil, apperr.Store("iterate snoozed leads", rows.Err())
	}
	return leads, nil
}

// ReleaseSnoozes schedules the given leads for immediate sweep pickup in
// one batch update. Status stays SNOOZED until the next send.
func (r *Repo) ReleaseSnoozes(ctx context.Context, leadIDs []uuid.UUID, now time.Time) (int64, error) {
	if len(leadIDs) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE leads
		 SET next_nurture_at = $2, nurture_locked_until = NULL, updated_at = now()
		 WHERE id = ANY($1) AND nurture_status = 'SNOOZED'`,
		leadIDs, now,
	)
	if err != nil {
		return 0, apperr.Store("release snoozes", err)
	}
	return tag.RowsAffected(), nil
}
