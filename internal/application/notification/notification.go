package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

// InboxLimit caps how many notifications List returns.
const InboxLimit = 50

// Dispatcher is the Notifier used by use cases: it hands notifications to
// the task queue.
type Dispatcher struct {
	enqueuer ports.TaskEnqueuer
}

func NewDispatcher(enqueuer ports.TaskEnqueuer) *Dispatcher {
	return &Dispatcher{enqueuer: enqueuer}
}

func (d *Dispatcher) Send(ctx context.Context, n *domain.Notification) error {
	return d.enqueuer.EnqueueNotification(ctx, n)
}

// Deliverer stores a notification in the recipient's inbox and pushes it to
// live subscribers.
type Deliverer struct {
	repo      ports.NotificationRepository
	publisher ports.NotificationPublisher
}

func NewDeliverer(repo ports.NotificationRepository, publisher ports.NotificationPublisher) *Deliverer {
	return &Deliverer{repo: repo, publisher: publisher}
}

func (d *Deliverer) Deliver(ctx context.Context, n *domain.Notification) error {
	if err := d.repo.Create(ctx, n); err != nil {
		return err
	}
	if d.publisher != nil {
		d.publisher.Publish(n)
	}
	return nil
}

var (
	_ ports.Notifier              = (*Dispatcher)(nil)
	_ ports.NotificationDeliverer = (*Deliverer)(nil)
)

type ListInput struct {
	Recipient domain.UserID
}

type ListResult struct {
	Notifications []*domain.Notification
	UnreadCount   int
}

type List struct {
	repo ports.NotificationRepository
}

func NewList(repo ports.NotificationRepository) *List {
	return &List{repo: repo}
}

func (uc *List) Execute(ctx context.Context, input ListInput) (*ListResult, error) {
	items, err := uc.repo.ListForRecipient(ctx, input.Recipient, InboxLimit)
	if err != nil {
		return nil, err
	}
	unread, err := uc.repo.CountUnread(ctx, input.Recipient)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.Notification{}
	}
	return &ListResult{Notifications: items, UnreadCount: unread}, nil
}

type MarkReadInput struct {
	Recipient domain.UserID
	ID        uuid.UUID
}

// MarkRead flags one notification. Another user's notification is reported
// as not found.
type MarkRead struct {
	repo ports.NotificationRepository
}

func NewMarkRead(repo ports.NotificationRepository) *MarkRead {
	return &MarkRead{repo: repo}
}

func (uc *MarkRead) Execute(ctx context.Context, input MarkReadInput) error {
	ok, err := uc.repo.MarkRead(ctx, input.Recipient, input.ID)
	if err != nil {
		return err
	}
	if !ok {
		return domerrors.ErrNotificationNotFound
	}
	return nil
}

type MarkAllRead struct {
	repo ports.NotificationRepository
}

func NewMarkAllRead(repo ports.NotificationRepository) *MarkAllRead {
	return &MarkAllRead{repo: repo}
}

func (uc *MarkAllRead) Execute(ctx context.Context, recipient domain.UserID) (int, error) {
	return uc.repo.MarkAllRead(ctx, recipient)
}
