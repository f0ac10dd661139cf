// Package scheduler provides the periodic trigger plumbing for the
// nurture engine: a ticker-driven dispatcher that enqueues jobs and an
// asynq worker that executes them.
package scheduler

import (
	"context"
	"errors"
	"time"

	"nurture_backend/platform/config"
	"nurture_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Dispatcher enqueues the periodic nurture jobs on fixed intervals. It
// is safe to run multiple dispatchers: task uniqueness collapses their
// triggers into one pending run per interval.
type Dispatcher struct {
	client         *Client
	sweepInterval  time.Duration
	expireInterval time.Duration
	log            *logger.Logger
}

func NewDispatcher(cfg config.SchedulerConfig, log *logger.Logger) (*Dispatcher, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	sweepInterval := cfg.GetSweepInterval()
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}
	expireInterval := cfg.GetSnoozeExpireInterval()
	if expireInterval <= 0 {
		expireInterval = 15 * time.Minute
	}

	return &Dispatcher{
		client:         client,
		sweepInterval:  sweepInterval,
		expireInterval: expireInterval,
		log:            log,
	}, nil
}

func (d *Dispatcher) Close() error {
	return d.client.Close()
}

// Run blocks until ctx is cancelled, enqueuing jobs on their intervals.
// The first round fires immediately so a fresh deploy does not wait a
// full interval.
func (d *Dispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	sweepTicker := time.NewTicker(d.sweepInterval)
	defer sweepTicker.Stop()
	expireTicker := time.NewTicker(d.expireInterval)
	defer expireTicker.Stop()

	d.enqueueSweep(ctx)
	d.enqueueSnoozeExpire(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweepTicker.C:
			d.enqueueSweep(ctx)
		case <-expireTicker.C:
			d.enqueueSnoozeExpire(ctx)
		}
	}
}

func (d *Dispatcher) enqueueSweep(ctx context.Context) {
	err := d.client.EnqueueSweep(ctx, d.sweepInterval)
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		d.log.Warn("sweep enqueue failed", "error", err)
	}
}

func (d *Dispatcher) enqueueSnoozeExpire(ctx context.Context) {
	err := d.client.EnqueueSnoozeExpire(ctx, d.expireInterval)
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		d.log.Warn("snooze-expire enqueue failed", "error", err)
	}
}
