package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
)

// InlineEnqueuer runs tasks in the caller's goroutine when Redis is not
// configured.
type InlineEnqueuer struct {
	deliverer ports.NotificationDeliverer
	emitter   ports.WebhookEmitter
	log       zerolog.Logger
}

func NewInlineEnqueuer(deliverer ports.NotificationDeliverer, emitter ports.WebhookEmitter, log zerolog.Logger) *InlineEnqueuer {
	return &InlineEnqueuer{deliverer: deliverer, emitter: emitter, log: log}
}

// SetDeliverer breaks the construction cycle between the enqueuer and the
// notification deliverer.
func (q *InlineEnqueuer) SetDeliverer(d ports.NotificationDeliverer) {
	q.deliverer = d
}

func (q *InlineEnqueuer) EnqueueNotification(ctx context.Context, n *domain.Notification) error {
	if q.deliverer == nil {
		return nil
	}
	return q.deliverer.Deliver(ctx, n)
}

func (q *InlineEnqueuer) EnqueueWebhook(ctx context.Context, event ports.ActivityEvent) error {
	if q.emitter == nil {
		return nil
	}
	if err := q.emitter.Emit(ctx, event); err != nil {
		q.log.Warn().Err(err).Str("event", event.Event).Msg("webhook emit failed")
		return err
	}
	return nil
}

var _ ports.TaskEnqueuer = (*InlineEnqueuer)(nil)
