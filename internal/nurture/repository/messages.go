package repository

import (
	"context"
	"time"

	"nurture_backend/platform/apperr"

	"github.com/google/uuid"
)

// Message is one inbound or outbound communication record.
type Message struct {
	ID                uuid.UUID
	LeadID            *uuid.UUID
	Direction         string
	Channel           string
	Body              string
	IsAuto            bool
	ProviderMessageID string
	CreatedAt         time.Time
}

// InsertMessage appends a message row. Messages are immutable once
// written.
func (r *Repo) InsertMessage(ctx context.Context, p InsertMessageParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`INSERT INTO messages (lead_id, direction, channel, body, is_auto, provider_message_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		p.LeadID, p.Direction, p.Channel, p.Body, p.IsAuto, p.ProviderMessageID,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, apperr.Store("insert message", err)
	}
	return id, nil
}

// ListByLead returns a lead's most recent messages, newest first.
func (r *Repo) ListByLead(ctx context.Context, leadID uuid.UUID, limit int) ([]Message, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, lead_id, direction, channel, body, is_auto,
		        COALESCE(provider_message_id, ''), created_at
		 FROM messages
		 WHERE lead_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		leadID, limit,
	)
	if err != nil {
		return nil, apperr.Store("list messages", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.LeadID, &m.Direction, &m.Channel, &m.Body, &m.IsAuto, &m.ProviderMessageID, &m.CreatedAt); err != nil {
			return nil, apperr.Store("scan message", err)
		}
		msgs = append(msgs, m)
	}
	if rows.Err() != nil {
		return nil, apperr.Store("iterate messages", rows.Err())
	}
	return msgs, nil
}
