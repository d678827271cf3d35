package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	"github.com/urfave/cli/v3"

	"github.com/projectnexus/nexus/internal/app"
	"github.com/projectnexus/nexus/internal/application/notification"
	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/config"
	infraauth "github.com/projectnexus/nexus/internal/infrastructure/auth"
	"github.com/projectnexus/nexus/internal/infrastructure/http/middleware"
	"github.com/projectnexus/nexus/internal/infrastructure/lockout"
	"github.com/projectnexus/nexus/internal/infrastructure/metrics"
	"github.com/projectnexus/nexus/internal/infrastructure/persistence/postgres"
	"github.com/projectnexus/nexus/internal/infrastructure/queue"
	"github.com/projectnexus/nexus/internal/infrastructure/realtime"
	"github.com/projectnexus/nexus/internal/infrastructure/scheduler"
	"github.com/projectnexus/nexus/internal/infrastructure/security"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "migrate",
				Usage:   "apply the schema before serving",
				Sources: cli.EnvVars("NEXUS_MIGRATE"),
			},
			&cli.BoolFlag{
				Name:    "embedded-worker",
				Usage:   "process queued tasks in this process when Redis is configured",
				Value:   true,
				Sources: cli.EnvVars("NEXUS_EMBEDDED_WORKER"),
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			rt, err := loadRuntime(ctx, true)
			if err != nil {
				return err
			}
			defer rt.close()
			return serve(ctx, rt, c.Bool("migrate"), c.Bool("embedded-worker"))
		},
	}
}

func serve(ctx context.Context, rt *runtime, migrate, embeddedWorker bool) error {
	cfg, log := rt.cfg, rt.log
	if migrate && rt.pool != nil {
		if err := postgres.Migrate(ctx, rt.pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info().Msg("schema applied")
	}
	repos := rt.repositories()

	objects, objectsPing, err := rt.objectStorage(ctx)
	if err != nil {
		return fmt.Errorf("object storage: %w", err)
	}

	key, ephemeral, err := infraauth.LoadSigningKey(cfg.JWT.PrivateKeyPath)
	if err != nil {
		return fmt.Errorf("signing key: %w", err)
	}
	if ephemeral {
		log.Warn().Msg("JWT_PRIVATE_KEY_PATH not set; using an ephemeral signing key")
	}
	issuer := infraauth.NewTokenIssuer(key, cfg.JWT.Issuer, cfg.JWT.Audience)

	collector := metrics.New()
	hub := realtime.NewHub(log)
	emitter := rt.webhookEmitter()

	var (
		enqueuer     ports.TaskEnqueuer
		lockoutStore ports.LoginLockoutStore
		limiterStore limiter.Store
	)
	if rt.redis != nil {
		taskEnq, err := queue.NewAsynqEnqueuer(rt.asynqOpt(), log)
		if err != nil {
			return fmt.Errorf("task queue: %w", err)
		}
		defer taskEnq.Close()
		enqueuer = taskEnq

		go func() {
			if err := realtime.Relay(ctx, rt.redis, hub, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("notification relay stopped")
			}
		}()
		if embeddedWorker {
			deliverer := notification.NewDeliverer(repos.Notifications, realtime.NewRedisPublisher(rt.redis, log))
			w := queue.NewWorker(rt.asynqOpt(), cfg.Worker.Concurrency, deliverer, emitter, log)
			if err := w.Start(); err != nil {
				return fmt.Errorf("start worker: %w", err)
			}
			defer w.Shutdown()
		}
		lockoutStore = lockout.NewRedisStore(rt.redis, cfg.Lockout.MaxAttempts, cfg.Lockout.CooldownSeconds, log)
	} else {
		enqueuer = queue.NewInlineEnqueuer(notification.NewDeliverer(repos.Notifications, hub), emitter, log)
		lockoutStore = lockout.NewMemoryStore(cfg.Lockout.MaxAttempts, cfg.Lockout.CooldownSeconds)
	}
	limiterStore, err = middleware.NewLimiterStore(rt.redis)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	handler, err := app.NewHandler(app.Backends{
		Users:         repos.Users,
		Projects:      repos.Projects,
		Versions:      repos.Versions,
		Activities:    repos.Activities,
		Notifications: repos.Notifications,
		Tx:            repos.Tx,
		Storage:       objects,
		Enqueuer:      enqueuer,
		Issuer:        issuer,
		Hasher: security.NewArgon2Hasher(security.Argon2Params{
			Memory:      cfg.Argon2.Memory,
			Iterations:  cfg.Argon2.Iterations,
			Parallelism: cfg.Argon2.Parallelism,
		}),
		Lockout:      lockoutStore,
		Stream:       hub,
		Metrics:      collector,
		LimiterStore: limiterStore,
		Checks:       rt.checks(objectsPing),
	}, app.Options{
		ShareBaseURL:   cfg.Share.BaseURL,
		AccessExpiry:   cfg.JWT.AccessExpiry,
		DownloadURLTTL: cfg.Storage.DownloadURLTTL,
		UploadURLTTL:   cfg.Storage.UploadURLTTL,
		UploadTimeout:  cfg.Storage.UploadTimeout,
		EffectTimeout:  cfg.Effects.Timeout,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		IPRate:         cfg.RateLimit.PerIP,
		UserRate:       cfg.RateLimit.PerUser,
		CORSOrigins:    cfg.Server.CORSOrigins,
		Development:    cfg.Secure.Development,
		ExposeMetrics:  cfg.Server.Metrics,
	}, log)
	if err != nil {
		return err
	}

	sched := scheduler.New(log)
	if err := registerRetention(sched, repos.Notifications, cfg.Retention, log); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).
			Str("database", cfg.Database.Backend).
			Str("storage", cfg.Storage.Backend).
			Bool("redis", rt.redis != nil).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// registerRetention schedules the purge of old read notifications. An empty
// schedule disables it.
func registerRetention(s *scheduler.Scheduler, repo ports.NotificationRepository, cfg config.RetentionConfig, log zerolog.Logger) error {
	if cfg.Schedule == "" || cfg.NotificationMaxAgeDays <= 0 {
		return nil
	}
	return s.Register(scheduler.Task{
		Name:     retentionTask,
		Schedule: cfg.Schedule,
		Handler: func(ctx context.Context) error {
			return purgeReadNotifications(ctx, repo, cfg.NotificationMaxAgeDays, log)
		},
	})
}
