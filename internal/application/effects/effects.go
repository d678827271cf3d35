// Package effects runs the non-critical side effects of a use case:
// notifications, activity entries and object deletes. A failure is logged and
// counted, never returned.
package effects

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
)

// DefaultTimeout bounds each side effect when none is configured.
const DefaultTimeout = 5 * time.Second

// Effect names used for logging and metrics.
const (
	EffectNotify       = "notify"
	EffectActivity     = "activity"
	EffectDeleteObject = "delete_object"
	EffectWebhook      = "webhook"
)

// Runner executes side effects detached from the caller's cancellation.
type Runner struct {
	notifier ports.Notifier
	activity ports.ActivityLog
	storage  ports.ObjectStorage
	metrics  ports.Metrics
	timeout  time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMetrics sets the failure counter sink.
func WithMetrics(m ports.Metrics) Option {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func NewRunner(notifier ports.Notifier, activity ports.ActivityLog, storage ports.ObjectStorage, log zerolog.Logger, opts ...Option) *Runner {
	r := &Runner{
		notifier: notifier,
		activity: activity,
		storage:  storage,
		metrics:  ports.NoopMetrics{},
		timeout:  DefaultTimeout,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now is the clock shared with the use cases.
func (r *Runner) Now() time.Time { return r.now() }

func (r *Runner) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
}

// Bound limits a call to an external collaborator that the operation still
// depends on. Unlike the effects it keeps the caller's cancellation.
func (r *Runner) Bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *Runner) failed(effect string, err error) *zerolog.Event {
	r.metrics.EffectFailed(effect)
	return r.log.Warn().Err(err).Str("effect", effect)
}

// Notify sends n unless the recipient is also the actor.
func (r *Runner) Notify(ctx context.Context, actor domain.UserID, n *domain.Notification) {
	if r.notifier == nil || n == nil || n.Recipient == actor {
		return
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now()
	}
	ctx, cancel := r.detach(ctx)
	defer cancel()
	if err := r.notifier.Send(ctx, n); err != nil {
		r.failed(EffectNotify, err).
			Str("recipient", n.Recipient.String()).
			Str("type", string(n.Type)).
			Msg("notification not delivered")
	}
}

// Record appends one activity entry.
func (r *Runner) Record(ctx context.Context, projectID domain.ProjectID, userID domain.UserID, action domain.ActivityAction, details string, metadata map[string]any) {
	if r.activity == nil {
		return
	}
	a := &domain.Activity{
		ID:        uuid.New(),
		ProjectID: projectID,
		UserID:    userID,
		Action:    action,
		Details:   details,
		Metadata:  metadata,
		CreatedAt: r.now(),
	}
	ctx, cancel := r.detach(ctx)
	defer cancel()
	if err := r.activity.Append(ctx, a); err != nil {
		r.failed(EffectActivity, err).
			Str("project_id", projectID.String()).
			Str("action", string(action)).
			Msg("activity not recorded")
	}
}

// DeleteObject removes a stored file. It reports whether the delete
// succeeded so callers can summarize a batch.
func (r *Runner) DeleteObject(ctx context.Context, projectID domain.ProjectID, versionID domain.VersionID, key string) bool {
	if r.storage == nil || key == "" {
		return true
	}
	ctx, cancel := r.detach(ctx)
	defer cancel()
	if err := r.storage.DeleteObject(ctx, key); err != nil {
		r.failed(EffectDeleteObject, err).
			Str("project_id", projectID.String()).
			Str("version_id", versionID.String()).
			Str("key", key).
			Msg("stored file not deleted")
		return false
	}
	return true
}

// Transition counts a version entering status.
func (r *Runner) Transition(status domain.VersionStatus) {
	r.metrics.VersionTransition(string(status))
}
