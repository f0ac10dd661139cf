// Package service holds the periodic nurture jobs: the outbound sweep
// and the snooze expirer.
package service

import (
	"context"
	"fmt"
	"time"

	"nurture_backend/internal/events"
	"nurture_backend/internal/nurture/repository"
	"nurture_backend/internal/nurture/stage"
	"nurture_backend/platform/apperr"
	"nurture_backend/platform/logger"
	"nurture_backend/platform/phone"

	"golang.org/x/sync/errgroup"
)

// SMSSender dispatches one outbound text and returns the provider's
// message id.
type SMSSender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// SweepReport summarizes one sweep run. Per-lead errors are collected
// here, never raised.
type SweepReport struct {
	Selected  int           `json:"selected"`
	Sent      int           `json:"sent"`
	Errors    []string      `json:"errors,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"-"`
}

// SweeperOptions tune a Sweeper beyond its required dependencies.
type SweeperOptions struct {
	BatchSize   int
	Workers     int
	PhoneRegion string
	SendTimeout time.Duration
	// Now is injectable for tests. Nil uses time.Now.
	Now func() time.Time
}

// Sweeper runs the periodic outbound drip: claim due leads, render the
// current stage template, send, then advance.
type Sweeper struct {
	store     repository.SweepStore
	sender    SMSSender
	policy    *stage.Policy
	templates stage.Templates
	bus       events.Bus
	log       *logger.Logger

	batchSize   int
	workers     int
	phoneRegion string
	sendTimeout time.Duration
	now         func() time.Time
}

// NewSweeper wires a sweeper. Zero option fields get sensible defaults.
func NewSweeper(
	store repository.SweepStore,
	sender SMSSender,
	policy *stage.Policy,
	templates stage.Templates,
	bus events.Bus,
	log *logger.Logger,
	opts SweeperOptions,
) *Sweeper {
	if opts.BatchSize < 1 {
		opts.BatchSize = 20
	}
	if opts.Workers < 1 {
		opts.Workers = 5
	}
	if opts.PhoneRegion == "" {
		opts.PhoneRegion = phone.DefaultRegion
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Sweeper{
		store:       store,
		sender:      sender,
		policy:      policy,
		templates:   templates,
		bus:         bus,
		log:         log,
		batchSize:   opts.BatchSize,
		workers:     opts.Workers,
		phoneRegion: opts.PhoneRegion,
		sendTimeout: opts.SendTimeout,
		now:         opts.Now,
	}
}

// RunOnce executes a single sweep. Safe to invoke on any schedule and
// concurrently with itself: ClaimDue hands each lead to exactly one run.
// Only a failure to read the due list aborts the attempt.
func (s *Sweeper) RunOnce(ctx context.Context) (SweepReport, error) {
	start := s.now()
	report := SweepReport{StartedAt: start}

	leads, err := s.store.ClaimDue(ctx, start, s.batchSize)
	if err != nil {
		s.log.DatabaseError("claim due leads", err)
		s.publish(ctx, events.SweepAborted{
			BaseEvent: events.NewBaseEvent(),
			Reason:    err.Error(),
		})
		return report, err
	}
	report.Selected = len(leads)
	if len(leads) == 0 {
		return report, nil
	}

	results := make([]error, len(leads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, lead := range leads {
		i, lead := i, lead
		g.Go(func() error {
			results[i] = s.processLead(gctx, lead)
			// Per-lead failures never cancel the group.
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range results {
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("lead %s: %v", leads[i].ID, err))
			continue
		}
		report.Sent++
	}
	report.Duration = s.now().Sub(start)

	s.log.SweepResult(report.Selected, report.Sent, len(report.Errors), float64(report.Duration.Milliseconds()))
	s.publish(ctx, events.SweepCompleted{
		BaseEvent: events.NewBaseEvent(),
		Selected:  report.Selected,
		Sent:      report.Sent,
		Failed:    len(report.Errors),
	})
	return report, nil
}

// processLead sends one drip message. Failures before dispatch disable
// or release the lead; a transport failure releases the claim so the
// lead stays due. The advance happens last, so a crash after dispatch
// leaves the lead retryable at the cost of a possible duplicate send.
func (s *Sweeper) processLead(ctx context.Context, lead repository.Lead) error {
	leadID := lead.ID.String()

	to, err := phone.NormalizeE164Strict(lead.Phone, s.phoneRegion)
	if err != nil {
		s.log.WithLead(leadID).Error("phone normalization failed, disabling nurture", "phone", lead.Phone, "error", err)
		if derr := s.store.DisableNurture(ctx, lead.ID, "invalid phone"); derr != nil {
			return derr
		}
		return err
	}

	body, ok := s.templates.Render(lead.NurtureStage, lead.FirstName)
	if !ok {
		err := apperr.New(apperr.KindValidation, fmt.Sprintf("no template for stage %s", lead.NurtureStage))
		s.log.WithLead(leadID).Error("missing stage template, disabling nurture", "stage", string(lead.NurtureStage))
		if derr := s.store.DisableNurture(ctx, lead.ID, "missing template"); derr != nil {
			return derr
		}
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	providerID, err := s.sender.Send(sendCtx, to, body)
	cancel()
	if err != nil {
		s.log.TransportError(leadID, to, err)
		if rerr := s.store.ReleaseClaim(ctx, lead.ID); rerr != nil {
			s.log.DatabaseError("release claim", rerr)
		}
		return err
	}

	sentAt := s.now()
	params := repository.RecordSendParams{
		LeadID:            lead.ID,
		Body:              body,
		ProviderMessageID: providerID,
		SentAt:            sentAt,
		Stage:             lead.NurtureStage,
	}
	if adv := s.policy.Next(lead.NurtureStage, sentAt); adv != nil {
		params.Stage = adv.Stage
		params.NextNurtureAt = &adv.SendAt
	}
	if err := s.store.RecordSend(ctx, params); err != nil {
		s.log.DatabaseError("record send", err)
		return err
	}
	return nil
}

func (s *Sweeper) publish(ctx context.Context, ev events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, ev)
}
