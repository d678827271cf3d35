package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const insertActivity = `INSERT INTO activities (id, project_id, user_id, action, details, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (q *Queries) InsertActivity(ctx context.Context, arg Activity) error {
	_, err := q.db.Exec(ctx, insertActivity, arg.ID, arg.ProjectID, arg.UserID, arg.Action,
		arg.Details, arg.Metadata, arg.CreatedAt)
	return err
}

const listActivities = `SELECT id, project_id, user_id, action, details, metadata, created_at
FROM activities WHERE project_id = $1
ORDER BY created_at DESC, id
LIMIT NULLIF($2, 0) OFFSET $3`

func (q *Queries) ListActivities(ctx context.Context, projectID uuid.UUID, limit, offset int32) ([]Activity, error) {
	rows, err := q.db.Query(ctx, listActivities, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Activity
	for rows.Next() {
		var i Activity
		if err := rows.Scan(&i.ID, &i.ProjectID, &i.UserID, &i.Action, &i.Details, &i.Metadata, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countActivities = `SELECT count(*) FROM activities WHERE project_id = $1`

func (q *Queries) CountActivities(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countActivities, projectID).Scan(&n)
	return n, err
}

const insertNotification = `INSERT INTO notifications (id, recipient_id, type, message, project_id, version_id, from_user_id, link, read, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (q *Queries) InsertNotification(ctx context.Context, arg Notification) error {
	_, err := q.db.Exec(ctx, insertNotification, arg.ID, arg.RecipientID, arg.Type, arg.Message,
		arg.ProjectID, arg.VersionID, arg.FromUserID, arg.Link, arg.Read, arg.CreatedAt)
	return err
}

const listNotifications = `SELECT id, recipient_id, type, message, project_id, version_id, from_user_id, link, read, created_at
FROM notifications WHERE recipient_id = $1
ORDER BY created_at DESC
LIMIT NULLIF($2, 0)`

func (q *Queries) ListNotifications(ctx context.Context, recipientID uuid.UUID, limit int32) ([]Notification, error) {
	rows, err := q.db.Query(ctx, listNotifications, recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Notification
	for rows.Next() {
		var i Notification
		if err := rows.Scan(&i.ID, &i.RecipientID, &i.Type, &i.Message, &i.ProjectID, &i.VersionID,
			&i.FromUserID, &i.Link, &i.Read, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countUnread = `SELECT count(*) FROM notifications WHERE recipient_id = $1 AND NOT read`

func (q *Queries) CountUnreadNotifications(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countUnread, recipientID).Scan(&n)
	return n, err
}

const markRead = `UPDATE notifications SET read = true WHERE recipient_id = $1 AND id = $2`

func (q *Queries) MarkNotificationRead(ctx context.Context, recipientID, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, markRead, recipientID, id)
	return tag.RowsAffected(), err
}

const markAllRead = `UPDATE notifications SET read = true WHERE recipient_id = $1 AND NOT read`

func (q *Queries) MarkAllNotificationsRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, markAllRead, recipientID)
	return tag.RowsAffected(), err
}

const deleteReadBefore = `DELETE FROM notifications WHERE read AND created_at < $1`

func (q *Queries) DeleteReadNotificationsBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteReadBefore, before)
	return tag.RowsAffected(), err
}
