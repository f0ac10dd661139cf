package repository

import (
	"context"

	"nurture_backend/internal/nurture/routing"
	"nurture_backend/platform/apperr"

	"github.com/google/uuid"
)

// InsertTask persists a follow-up task from a router decision. The
// nurture engine never mutates tasks after creation.
func (r *Repo) InsertTask(ctx context.Context, draft routing.TaskDraft) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tasks (lead_id, assigned_to, title, notes, priority, due_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		draft.LeadID, draft.AssignedTo, draft.Title, draft.Notes, draft.Priority, draft.DueAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, apperr.Store("insert task", err)
	}
	return id, nil
}
