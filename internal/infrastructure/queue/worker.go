package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/ports"
)

// Worker runs the asynq task handlers.
type Worker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
	log zerolog.Logger
}

type handlers struct {
	deliverer ports.NotificationDeliverer
	emitter   ports.WebhookEmitter
	log       zerolog.Logger
}

// NewWorker creates an asynq server and registers handlers. Call Run to start.
func NewWorker(redisOpt asynq.RedisClientOpt, concurrency int, deliverer ports.NotificationDeliverer, emitter ports.WebhookEmitter, log zerolog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 2
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		LogLevel:    asynq.InfoLevel,
	})
	mux := asynq.NewServeMux()
	h := &handlers{deliverer: deliverer, emitter: emitter, log: log}
	mux.HandleFunc(TypeNotificationDeliver, h.handleNotification)
	mux.HandleFunc(TypeWebhook, h.handleWebhook)
	return &Worker{srv: srv, mux: mux, log: log}
}

func (h *handlers) handleNotification(ctx context.Context, t *asynq.Task) error {
	n, err := decodeNotification(t.Payload())
	if err != nil {
		h.log.Error().Err(err).Msg("notification task payload invalid")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err := h.deliverer.Deliver(ctx, n); err != nil {
		h.log.Warn().Err(err).Str("recipient", n.Recipient.String()).Msg("notification delivery failed")
		return err
	}
	return nil
}

func (h *handlers) handleWebhook(ctx context.Context, t *asynq.Task) error {
	var ev ports.ActivityEvent
	if err := json.Unmarshal(t.Payload(), &ev); err != nil {
		h.log.Error().Err(err).Msg("webhook task payload invalid")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if h.emitter == nil {
		return nil
	}
	return h.emitter.Emit(ctx, ev)
}

// Start runs the handlers in the background, for a worker embedded in the
// API process. Pair with Shutdown.
func (w *Worker) Start() error {
	w.log.Info().Msg("embedded task worker started")
	return w.srv.Start(w.mux)
}

// Run blocks until SIGINT or SIGTERM.
func (w *Worker) Run() error {
	w.log.Info().Msg("task worker started")
	return w.srv.Run(w.mux)
}

func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}
