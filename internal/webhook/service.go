package webhook

import (
	"context"
	"time"

	"nurture_backend/internal/events"
	"nurture_backend/internal/nurture/intent"
	"nurture_backend/internal/nurture/repository"
	"nurture_backend/internal/nurture/routing"
	"nurture_backend/platform/apperr"
	"nurture_backend/platform/logger"
	"nurture_backend/platform/phone"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// dedupTTL is how long an inbound provider message id is remembered.
// Provider retries arrive within minutes; a day is comfortably past that.
const dedupTTL = 24 * time.Hour

const dedupKeyPrefix = "sms:inbound:"

// InboundSMS is the normalized provider callback. Payload parsing is the
// handler's job; the service never sees provider-specific shapes.
type InboundSMS struct {
	FromPhone         string
	Text              string
	ProviderMessageID string
}

// InboundResult reports what one inbound delivery did.
type InboundResult struct {
	Duplicate bool       `json:"duplicate"`
	MessageID uuid.UUID  `json:"messageId"`
	LeadID    *uuid.UUID `json:"leadId,omitempty"`
	Intent    string     `json:"intent"`
	NewStatus string     `json:"newStatus,omitempty"`
	TaskID    *uuid.UUID `json:"taskId,omitempty"`
}

// Service processes inbound SMS callbacks: dedup, lead matching, message
// persistence, intent classification, and nurture routing.
type Service struct {
	leads      repository.RouteStore
	messages   repository.MessageStore
	tasks      repository.TaskStore
	classifier *intent.Classifier
	router     *routing.Router
	rdb        *redis.Client
	bus        events.Bus
	log        *logger.Logger
	region     string
}

// NewService wires the inbound pipeline. A nil redis client disables
// dedup, which only costs duplicate message rows on provider retries.
func NewService(
	leads repository.RouteStore,
	messages repository.MessageStore,
	tasks repository.TaskStore,
	classifier *intent.Classifier,
	router *routing.Router,
	rdb *redis.Client,
	bus events.Bus,
	log *logger.Logger,
	region string,
) *Service {
	if region == "" {
		region = phone.DefaultRegion
	}
	return &Service{
		leads:      leads,
		messages:   messages,
		tasks:      tasks,
		classifier: classifier,
		router:     router,
		rdb:        rdb,
		bus:        bus,
		log:        log,
		region:     region,
	}
}

// ProcessInboundSMS handles one provider delivery. Persistence is
// at-least-once: the redis guard drops retries of deliveries that
// already succeeded, and replays that slip through are safe because
// routing the same intent twice lands on the same state. A failed
// attempt releases its claim so the provider's retry is processed.
func (s *Service) ProcessInboundSMS(ctx context.Context, in InboundSMS) (InboundResult, error) {
	if s.isDuplicate(ctx, in.ProviderMessageID) {
		s.log.Info("duplicate inbound delivery dropped", "providerMessageId", in.ProviderMessageID)
		return InboundResult{Duplicate: true}, nil
	}

	result, err := s.process(ctx, in)
	if err != nil {
		s.releaseDedup(ctx, in.ProviderMessageID)
	}
	return result, err
}

func (s *Service) process(ctx context.Context, in InboundSMS) (InboundResult, error) {
	normalized := phone.NormalizeE164(in.FromPhone, s.region)

	var leadID *uuid.UUID
	var lead repository.Lead
	matched := false
	lead, err := s.leads.GetByPhone(ctx, normalized)
	switch {
	case err == nil:
		matched = true
		leadID = &lead.ID
	case apperr.Is(err, apperr.KindNotFound):
		// Unmatched senders still get their message logged, unattached.
	default:
		return InboundResult{}, err
	}

	msgID, err := s.messages.InsertMessage(ctx, repository.InsertMessageParams{
		LeadID:            leadID,
		Direction:         "INBOUND",
		Channel:           "sms",
		Body:              in.Text,
		ProviderMessageID: in.ProviderMessageID,
	})
	if err != nil {
		return InboundResult{}, err
	}

	s.publish(ctx, events.InboundMessageReceived{
		BaseEvent: events.NewBaseEvent(),
		MessageID: msgID,
		LeadID:    leadID,
		FromPhone: normalized,
	})

	result := InboundResult{MessageID: msgID, LeadID: leadID}
	if !matched {
		result.Intent = string(intent.IntentUnknown)
		return result, nil
	}

	classified := s.classifier.Classify(in.Text)
	result.Intent = string(classified.Intent)

	decision := s.router.Route(lead.Snapshot(), classified)
	if !decision.Changed {
		return result, nil
	}

	// Status write comes first so an opt-out sticks even if task
	// creation fails afterwards.
	if err := s.leads.ApplyDecision(ctx, lead.ID, decision); err != nil {
		return result, err
	}
	result.NewStatus = string(decision.Status)

	var taskID *uuid.UUID
	if decision.Task != nil {
		id, err := s.tasks.InsertTask(ctx, *decision.Task)
		if err != nil {
			// The lead is already ENGAGED; losing the task is recoverable
			// by an operator, reverting the status is not.
			s.log.WithLead(lead.ID.String()).Error("follow-up task creation failed", "error", err)
		} else {
			taskID = &id
			result.TaskID = taskID
		}
	}

	s.log.IntentRouted(lead.ID.String(), string(classified.Intent), string(decision.Status))
	s.publish(ctx, events.NurtureTransitionApplied{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Intent:    string(classified.Intent),
		NewStatus: string(decision.Status),
		TaskID:    taskID,
	})
	return result, nil
}

// isDuplicate claims the provider message id in redis. Fails open: a
// redis outage must not block inbound compliance messages.
func (s *Service) isDuplicate(ctx context.Context, providerMessageID string) bool {
	if s.rdb == nil || providerMessageID == "" {
		return false
	}
	ok, err := s.rdb.SetNX(ctx, dedupKeyPrefix+providerMessageID, 1, dedupTTL).Result()
	if err != nil {
		s.log.Warn("inbound dedup check failed, processing anyway", "error", err)
		return false
	}
	return !ok
}

// releaseDedup drops the claim after a failed attempt. The claim must
// not outlive the attempt that took it, or the provider's retry would
// be dropped and an opt-out could be lost for the TTL window.
func (s *Service) releaseDedup(ctx context.Context, providerMessageID string) {
	if s.rdb == nil || providerMessageID == "" {
		return
	}
	// Runs even when the request context is already cancelled.
	ctx = context.WithoutCancel(ctx)
	if err := s.rdb.Del(ctx, dedupKeyPrefix+providerMessageID).Err(); err != nil {
		s.log.Warn("inbound dedup release failed", "providerMessageId", providerMessageID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, ev)
}
