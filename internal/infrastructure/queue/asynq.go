// Package queue moves notifications and webhook events off the request
// path, through asynq when Redis is configured and inline otherwise.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
)

const (
	TypeNotificationDeliver = "notification:deliver"
	TypeWebhook             = "webhook:emit"
)

const (
	defaultMaxRetry = 5
	taskTimeout     = 30 * time.Second
)

type TaskEnqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

func NewAsynqEnqueuer(redisOpt asynq.RedisClientOpt, log zerolog.Logger) (*TaskEnqueuer, error) {
	client := asynq.NewClient(redisOpt)
	return &TaskEnqueuer{client: client, log: log}, nil
}

func (q *TaskEnqueuer) Close() error {
	return q.client.Close()
}

func (q *TaskEnqueuer) EnqueueNotification(ctx context.Context, n *domain.Notification) error {
	payload, err := encodeNotification(n)
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeNotificationDeliver, payload, asynq.MaxRetry(defaultMaxRetry), asynq.Timeout(taskTimeout))
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		q.log.Warn().Err(err).Str("recipient", n.Recipient.String()).Msg("enqueue notification failed")
		return err
	}
	return nil
}

func (q *TaskEnqueuer) EnqueueWebhook(ctx context.Context, event ports.ActivityEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeWebhook, body, asynq.MaxRetry(defaultMaxRetry), asynq.Timeout(taskTimeout))
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		q.log.Warn().Err(err).Str("event", event.Event).Msg("enqueue webhook failed")
		return err
	}
	return nil
}

var _ ports.TaskEnqueuer = (*TaskEnqueuer)(nil)
