package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/projectnexus/nexus/internal/application/notification"
	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/application/retention"
	"github.com/projectnexus/nexus/internal/infrastructure/persistence/postgres"
	"github.com/projectnexus/nexus/internal/infrastructure/queue"
	"github.com/projectnexus/nexus/internal/infrastructure/realtime"
)

const retentionTask = "purge-read-notifications"

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply the Postgres schema",
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := loadRuntime(ctx, true)
			if err != nil {
				return err
			}
			defer rt.close()
			if rt.pool == nil {
				return errors.New("migrate needs DATABASE_BACKEND=postgres")
			}
			if err := postgres.Migrate(ctx, rt.pool); err != nil {
				return err
			}
			rt.log.Info().Msg("schema applied")
			return nil
		},
	}
}

// workerCmd runs the task handlers on their own. Stored notifications are
// published on Redis and pushed by whichever API process holds the
// recipient's stream.
func workerCmd() *cli.Command {
	return &cli.Command{
		Name:  "worker",
		Usage: "process queued notification and webhook tasks",
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := loadRuntime(ctx, true)
			if err != nil {
				return err
			}
			defer rt.close()
			if rt.redis == nil {
				return errors.New("worker needs a reachable REDIS_URL")
			}
			if rt.pool == nil {
				return errors.New("worker needs DATABASE_BACKEND=postgres")
			}
			repos := rt.repositories()
			deliverer := notification.NewDeliverer(repos.Notifications, realtime.NewRedisPublisher(rt.redis, rt.log))
			w := queue.NewWorker(rt.asynqOpt(), rt.cfg.Worker.Concurrency, deliverer, rt.webhookEmitter(), rt.log)
			return w.Run()
		},
	}
}

func retentionCmd() *cli.Command {
	return &cli.Command{
		Name:  "retention",
		Usage: "delete read notifications older than the configured age",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "days",
				Usage: "override RETENTION_NOTIFICATION_MAX_AGE_DAYS",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := loadRuntime(ctx, true)
			if err != nil {
				return err
			}
			defer rt.close()
			days := rt.cfg.Retention.NotificationMaxAgeDays
			if d := c.Int("days"); d > 0 {
				days = int(d)
			}
			return purgeReadNotifications(ctx, rt.repositories().Notifications, days, rt.log)
		},
	}
}

func purgeReadNotifications(ctx context.Context, repo ports.NotificationRepository, days int, log zerolog.Logger) error {
	n, err := retention.RunPurgeReadNotifications(ctx, repo, days, time.Now())
	if err != nil {
		return fmt.Errorf("purge read notifications: %w", err)
	}
	log.Info().Int("purged", n).Int("max_age_days", days).Msg("read notifications purged")
	return nil
}
