package scheduler

import (
	"context"

	"hoareca_growth_hub/platform/config"
	"hoareca_growth_hub/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	reminders *Reminders
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, reminders *Reminders, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		reminders: reminders,
		log:       log,
	}

	mux.HandleFunc(TaskRevisitReminder, w.handleRevisitReminder)

	return w, nil
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

func (w *Worker) handleRevisitReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRevisitReminderPayload(task)
	if err != nil {
		return err
	}
	return w.reminders.Deliver(ctx, payload)
}
