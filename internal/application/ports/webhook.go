package ports

import (
	"context"
	"time"
)

// ActivityEvent is an audit entry forwarded to an external endpoint.
type ActivityEvent struct {
	Event     string         `json:"event"`
	ProjectID string         `json:"project_id"`
	UserID    string         `json:"user_id"`
	Details   string         `json:"details,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	At        time.Time      `json:"at"`
}

// WebhookEmitter sends activity events to an external endpoint.
type WebhookEmitter interface {
	Emit(ctx context.Context, event ActivityEvent) error
}
