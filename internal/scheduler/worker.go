package scheduler

import (
	"context"
	"fmt"

	"previdas_backend/internal/leads/service"
	"previdas_backend/platform/apperr"
	"previdas_backend/platform/config"
	"previdas_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	leads  *service.Service
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, leads *service.Service, log *logger.Logger) (*Worker, error) {
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
		server: server,
		mux:    mux,
		leads:  leads,
		log:    log,
	}

	mux.HandleFunc(TaskMessageReceived, w.handleMessageReceived)
	mux.HandleFunc(TaskLeadRegistered, w.handleLeadRegistered)

	return w, nil
}

// handleMessageReceived runs the qualification pipeline for one queued
// message. Validation failures are permanent; redelivering a malformed
// payload can never succeed.
func (w *Worker) handleMessageReceived(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseMessageReceivedPayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	if payload.Name != "" {
		if _, err := w.leads.RegisterLead(ctx, service.RegisterParams{Phone: payload.Phone, Name: payload.Name, Source: "whatsapp"}); err != nil {
			if apperr.Is(err, apperr.KindValidation) {
				return fmt.Errorf("register lead: %v: %w", err, asynq.SkipRetry)
			}
			return err
		}
	}

	result, err := w.leads.ProcessMessage(ctx, payload.Phone, payload.Text)
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			return fmt.Errorf("process message: %v: %w", err, asynq.SkipRetry)
		}
		// Store or lock unavailability is transient; asynq redelivers.
		return err
	}

	w.log.Info("queued message processed",
		"identity", result.Identity,
		"status", result.Status,
		"score", result.Score,
		"notified", result.Notified,
	)
	return nil
}

func (w *Worker) handleLeadRegistered(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadRegisteredPayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	contact, err := w.leads.RegisterLead(ctx, service.RegisterParams{
		Phone:  payload.Phone,
		Name:   payload.Name,
		Source: payload.Source,
	})
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			return fmt.Errorf("register lead: %v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	w.log.Info("queued registration processed", "identity", contact.Identity)
	return nil
}

// Run serves the queue until the context is cancelled.
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
