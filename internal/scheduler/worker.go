package scheduler

import (
	"context"
	"fmt"

	"nurture_backend/internal/nurture/service"
	"nurture_backend/platform/config"
	"nurture_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker consumes the nurture queue and runs the sweep and expirer.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper *service.Sweeper
	expirer *service.Expirer
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sweeper *service.Sweeper, expirer *service.Expirer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		sweeper: sweeper,
		expirer: expirer,
		log:     log,
	}

	mux.HandleFunc(TaskNurtureSweep, w.handleNurtureSweep)
	mux.HandleFunc(TaskSnoozeExpire, w.handleSnoozeExpire)

	return w, nil
}

func (w *Worker) handleNurtureSweep(ctx context.Context, task *asynq.Task) error {
	_, err := w.sweeper.RunOnce(ctx)
	return err
}

func (w *Worker) handleSnoozeExpire(ctx context.Context, task *asynq.Task) error {
	_, err := w.expirer.RunOnce(ctx, true)
	return err
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
