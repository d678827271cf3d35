package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	"github.com/projectnexus/nexus/internal/infrastructure/persistence/db"
)

type ActivityRepository struct {
	q *db.Queries
}

func NewActivityRepository(q *db.Queries) *ActivityRepository {
	return &ActivityRepository{q: q}
}

func (r *ActivityRepository) Append(ctx context.Context, a *domain.Activity) error {
	var metadata []byte
	if len(a.Metadata) > 0 {
		b, err := json.Marshal(a.Metadata)
		if err != nil {
			return err
		}
		metadata = b
	}
	return r.q.InsertActivity(ctx, db.Activity{
		ID:        a.ID,
		ProjectID: a.ProjectID.UUID,
		UserID:    a.UserID.UUID,
		Action:    string(a.Action),
		Details:   a.Details,
		Metadata:  metadata,
		CreatedAt: a.CreatedAt,
	})
}

func (r *ActivityRepository) ListByProject(ctx context.Context, projectID domain.ProjectID, limit, offset int) ([]*domain.Activity, error) {
	rows, err := r.q.ListActivities(ctx, projectID.UUID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Activity, 0, len(rows))
	for _, row := range rows {
		a := &domain.Activity{
			ID:        row.ID,
			ProjectID: domain.NewProjectID(row.ProjectID),
			UserID:    domain.NewUserID(row.UserID),
			Action:    domain.ActivityAction(row.Action),
			Details:   row.Details,
			CreatedAt: row.CreatedAt,
		}
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &a.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *ActivityRepository) CountByProject(ctx context.Context, projectID domain.ProjectID) (int, error) {
	n, err := r.q.CountActivities(ctx, projectID.UUID)
	return int(n), err
}

type NotificationRepository struct {
	q *db.Queries
}

func NewNotificationRepository(q *db.Queries) *NotificationRepository {
	return &NotificationRepository{q: q}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	row := db.Notification{
		ID:          n.ID,
		RecipientID: n.Recipient.UUID,
		Type:        string(n.Type),
		Message:     n.Message,
		Link:        n.Link,
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
	}
	if n.ProjectID != nil {
		row.ProjectID = nullUUID(&n.ProjectID.UUID)
	}
	if n.VersionID != nil {
		row.VersionID = nullUUID(&n.VersionID.UUID)
	}
	if n.FromUser != nil {
		row.FromUserID = nullUUID(&n.FromUser.UUID)
	}
	return r.q.InsertNotification(ctx, row)
}

func (r *NotificationRepository) ListForRecipient(ctx context.Context, recipient domain.UserID, limit int) ([]*domain.Notification, error) {
	rows, err := r.q.ListNotifications(ctx, recipient.UUID, int32(limit))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Notification, 0, len(rows))
	for _, row := range rows {
		n := &domain.Notification{
			ID:        row.ID,
			Recipient: domain.NewUserID(row.RecipientID),
			Type:      domain.NotificationType(row.Type),
			Message:   row.Message,
			Link:      row.Link,
			Read:      row.Read,
			CreatedAt: row.CreatedAt,
		}
		if id := fromNullUUID(row.ProjectID); id != nil {
			pid := domain.NewProjectID(*id)
			n.ProjectID = &pid
		}
		if id := fromNullUUID(row.VersionID); id != nil {
			vid := domain.NewVersionID(*id)
			n.VersionID = &vid
		}
		if id := fromNullUUID(row.FromUserID); id != nil {
			uid := domain.NewUserID(*id)
			n.FromUser = &uid
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipient domain.UserID) (int, error) {
	n, err := r.q.CountUnreadNotifications(ctx, recipient.UUID)
	return int(n), err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, recipient domain.UserID, id uuid.UUID) (bool, error) {
	n, err := r.q.MarkNotificationRead(ctx, recipient.UUID, id)
	return n > 0, err
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipient domain.UserID) (int, error) {
	n, err := r.q.MarkAllNotificationsRead(ctx, recipient.UUID)
	return int(n), err
}

func (r *NotificationRepository) DeleteReadBefore(ctx context.Context, before time.Time) (int, error) {
	n, err := r.q.DeleteReadNotificationsBefore(ctx, before)
	return int(n), err
}

var (
	_ ports.ActivityRepository     = (*ActivityRepository)(nil)
	_ ports.NotificationRepository = (*NotificationRepository)(nil)
)
