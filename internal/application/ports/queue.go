package ports

import (
	"context"

	"github.com/projectnexus/nexus/internal/domain"
)

// Notifier hands a notification to the delivery pipeline. Callers treat it
// as fire-and-forget.
type Notifier interface {
	Send(ctx context.Context, n *domain.Notification) error
}

// NotificationPublisher pushes a stored notification to live subscribers.
type NotificationPublisher interface {
	Publish(n *domain.Notification)
}

// NotificationDeliverer stores a notification and publishes it. It runs on
// the worker side of the queue.
type NotificationDeliverer interface {
	Deliver(ctx context.Context, n *domain.Notification) error
}

// ActivityLog is the append-only audit trail as seen by use cases.
type ActivityLog interface {
	Append(ctx context.Context, activity *domain.Activity) error
}

// TaskEnqueuer enqueues async tasks.
type TaskEnqueuer interface {
	EnqueueNotification(ctx context.Context, n *domain.Notification) error
	EnqueueWebhook(ctx context.Context, event ActivityEvent) error
}
