package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nurture_backend/internal/alert"
	"nurture_backend/internal/events"
	"nurture_backend/internal/nurture"
	"nurture_backend/internal/scheduler"
	"nurture_backend/internal/sms"
	"nurture_backend/platform/config"
	"nurture_backend/platform/db"
	"nurture_backend/platform/logger"
	"nurture_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	mailer := alert.NewMailer(cfg, log)
	mailer.SubscribeSweepAborted(eventBus)

	settings, err := nurture.LoadSettings(cfg.GetNurtureSettingsPath())
	if err != nil {
		log.Error("failed to load nurture settings", "error", err)
		panic("failed to load nurture settings: " + err.Error())
	}

	loc, err := time.LoadLocation(cfg.GetNurtureTimezone())
	if err != nil {
		log.Error("invalid nurture timezone", "timezone", cfg.GetNurtureTimezone(), "error", err)
		panic("invalid nurture timezone: " + err.Error())
	}

	smsClient := sms.NewClient(cfg, log)
	if smsClient == nil {
		log.Warn("SMS gateway not configured; outbound sends are no-ops")
	}

	val := validator.New()
	nurtureModule := nurture.NewModule(pool, smsClient, settings, loc, eventBus, val, cfg, log)

	worker, err := scheduler.NewWorker(cfg, nurtureModule.Sweeper(), nurtureModule.Expirer(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	dispatcher, err := scheduler.NewDispatcher(cfg, log)
	if err != nil {
		log.Error("failed to initialize scheduler dispatcher", "error", err)
		panic("failed to initialize scheduler dispatcher: " + err.Error())
	}
	defer func() { _ = dispatcher.Close() }()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		dispatcher.Run(gctx)
		return nil
	})

	log.Info("scheduler running",
		"sweepInterval", cfg.GetSweepInterval().String(),
		"snoozeExpireInterval", cfg.GetSnoozeExpireInterval().String(),
	)
	_ = g.Wait()
	log.Info("scheduler stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
