package webhook

import (
	"context"

	"github.com/projectnexus/nexus/internal/application/ports"
)

// NoopEmitter discards events when no webhook URL is configured.
type NoopEmitter struct{}

func NewNoopEmitter() *NoopEmitter {
	return &NoopEmitter{}
}

func (e *NoopEmitter) Emit(ctx context.Context, event ports.ActivityEvent) error {
	return nil
}

var _ ports.WebhookEmitter = (*NoopEmitter)(nil)
