// Package transport defines request and response DTOs for the nurture
// HTTP surface.
package transport

import "time"

// RunSweepResponse reports one manually triggered sweep run.
type RunSweepResponse struct {
	Selected   int       `json:"selected"`
	Sent       int       `json:"sent"`
	Errors     []string  `json:"errors,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMs int64     `json:"durationMs"`
}

// ExpireSnoozesRequest selects dry-run or apply mode.
type ExpireSnoozesRequest struct {
	DryRun bool `form:"dryRun"`
}

// ExpiredSnoozeView is one matched lead in an expirer response.
type ExpiredSnoozeView struct {
	LeadID      string     `json:"leadId"`
	FirstName   string     `json:"firstName"`
	LockedUntil *time.Time `json:"lockedUntil"`
}

// ExpireSnoozesResponse reports one expirer run.
type ExpireSnoozesResponse struct {
	Matched  []ExpiredSnoozeView `json:"matched"`
	Released int64               `json:"released"`
	DryRun   bool                `json:"dryRun"`
}

// MessageView is one message row in a conversation listing.
type MessageView struct {
	ID                string    `json:"id"`
	Direction         string    `json:"direction"`
	Channel           string    `json:"channel"`
	Body              string    `json:"body"`
	IsAuto            bool      `json:"isAuto"`
	ProviderMessageID string    `json:"providerMessageId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// ListMessagesRequest bounds a conversation listing.
type ListMessagesRequest struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=200"`
}
