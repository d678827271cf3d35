package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
)

type ActivityRepository struct {
	s *Store
}

func (r *ActivityRepository) Append(ctx context.Context, activity *domain.Activity) error {
	a := *activity
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.activities[a.ProjectID] = append(r.s.activities[a.ProjectID], &a)
	return nil
}

// ListByProject returns entries newest first.
func (r *ActivityRepository) ListByProject(ctx context.Context, projectID domain.ProjectID, limit, offset int) ([]*domain.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := r.s.activities[projectID]
	var out []*domain.Activity
	for i := len(all) - 1 - offset; i >= 0; i-- {
		a := *all[i]
		out = append(out, &a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *ActivityRepository) CountByProject(ctx context.Context, projectID domain.ProjectID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.activities[projectID]), nil
}

type NotificationRepository struct {
	s *Store
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	c := *n
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifications[c.Recipient] = append(r.s.notifications[c.Recipient], &c)
	return nil
}

// ListForRecipient returns the inbox newest first.
func (r *NotificationRepository) ListForRecipient(ctx context.Context, recipient domain.UserID, limit int) ([]*domain.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := r.s.notifications[recipient]
	var out []*domain.Notification
	for i := len(all) - 1; i >= 0; i-- {
		c := *all[i]
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipient domain.UserID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, x := range r.s.notifications[recipient] {
		if !x.Read {
			n++
		}
	}
	return n, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, recipient domain.UserID, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.notifications[recipient] {
		if x.ID == id {
			x.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipient domain.UserID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, x := range r.s.notifications[recipient] {
		if !x.Read {
			x.Read = true
			n++
		}
	}
	return n, nil
}

func (r *NotificationRepository) DeleteReadBefore(ctx context.Context, before time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	removed := 0
	for user, list := range r.s.notifications {
		kept := list[:0]
		for _, x := range list {
			if x.Read && x.CreatedAt.Before(before) {
				removed++
				continue
			}
			kept = append(kept, x)
		}
		r.s.notifications[user] = kept
	}
	return removed, nil
}

var (
	_ ports.ActivityRepository     = (*ActivityRepository)(nil)
	_ ports.NotificationRepository = (*NotificationRepository)(nil)
)
