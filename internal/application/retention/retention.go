package retention

import (
	"context"
	"time"

	"github.com/projectnexus/nexus/internal/application/ports"
)

// RunPurgeReadNotifications deletes read notifications older than
// maxAgeDays. Call periodically (e.g. daily cron). maxAgeDays 0 = no-op.
func RunPurgeReadNotifications(ctx context.Context, repo ports.NotificationRepository, maxAgeDays int, now time.Time) (purged int, err error) {
	if maxAgeDays <= 0 {
		return 0, nil
	}
	threshold := now.Add(-time.Duration(maxAgeDays) * 24 * time.Hour)
	return repo.DeleteReadBefore(ctx, threshold)
}
