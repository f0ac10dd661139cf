// Package handler exposes the admin surface for the nurture engine:
// manual sweep and expirer triggers plus conversation listings.
package handler

import (
	"net/http"

	"nurture_backend/internal/nurture/repository"
	"nurture_backend/internal/nurture/service"
	"nurture_backend/internal/nurture/transport"
	"nurture_backend/platform/httpkit"
	"nurture_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead id"
)

// Handler handles HTTP requests for nurture administration.
type Handler struct {
	sweeper  *service.Sweeper
	expirer  *service.Expirer
	messages repository.MessageStore
	val      *validator.Validator
}

// New creates a new nurture handler.
func New(sweeper *service.Sweeper, expirer *service.Expirer, messages repository.MessageStore, val *validator.Validator) *Handler {
	return &Handler{sweeper: sweeper, expirer: expirer, messages: messages, val: val}
}

// RunSweep triggers one sweep run immediately.
// POST /api/v1/admin/nurture/sweep
func (h *Handler) RunSweep(c *gin.Context) {
	report, err := h.sweeper.RunOnce(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.RunSweepResponse{
		Selected:   report.Selected,
		Sent:       report.Sent,
		Errors:     report.Errors,
		StartedAt:  report.StartedAt,
		DurationMs: report.Duration.Milliseconds(),
	})
}

// ExpireSnoozes runs the snooze expirer, dry-run by default.
// POST /api/v1/admin/nurture/snooze-expirations?dryRun=true
func (h *Handler) ExpireSnoozes(c *gin.Context) {
	req := transport.ExpireSnoozesRequest{DryRun: true}
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	report, err := h.expirer.RunOnce(c.Request.Context(), !req.DryRun)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.ExpireSnoozesResponse{
		Matched:  make([]transport.ExpiredSnoozeView, 0, len(report.Matched)),
		Released: report.Released,
		DryRun:   report.DryRun,
	}
	for _, m := range report.Matched {
		resp.Matched = append(resp.Matched, transport.ExpiredSnoozeView{
			LeadID:      m.LeadID.String(),
			FirstName:   m.FirstName,
			LockedUntil: m.LockedUntil,
		})
	}
	httpkit.OK(c, resp)
}

// ListMessages returns a lead's conversation, newest first.
// GET /api/v1/admin/nurture/leads/:id/messages
func (h *Handler) ListMessages(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}
	var req transport.ListMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	msgs, err := h.messages.ListByLead(c.Request.Context(), leadID, req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}

	views := make([]transport.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, transport.MessageView{
			ID:                m.ID.String(),
			Direction:         m.Direction,
			Channel:           m.Channel,
			Body:              m.Body,
			IsAuto:            m.IsAuto,
			ProviderMessageID: m.ProviderMessageID,
			CreatedAt:         m.CreatedAt,
		})
	}
	httpkit.OK(c, views)
}
