package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/config"
	"github.com/projectnexus/nexus/internal/infrastructure/http/handlers"
	"github.com/projectnexus/nexus/internal/infrastructure/persistence/db"
	"github.com/projectnexus/nexus/internal/infrastructure/persistence/memory"
	"github.com/projectnexus/nexus/internal/infrastructure/persistence/postgres"
	"github.com/projectnexus/nexus/internal/infrastructure/storage"
	"github.com/projectnexus/nexus/internal/infrastructure/webhook"
	"github.com/projectnexus/nexus/internal/logger"
)

type repositories struct {
	Users         ports.UserRepository
	Projects      ports.ProjectRepository
	Versions      ports.VersionRepository
	Activities    ports.ActivityRepository
	Notifications ports.NotificationRepository
	Tx            ports.TxManager
}

// runtime owns the connections shared by every command.
type runtime struct {
	cfg   *config.Config
	log   zerolog.Logger
	pool  *pgxpool.Pool
	redis *redis.Client
}

func loadRuntime(ctx context.Context, needDB bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	rt := &runtime{
		cfg: cfg,
		log: logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty}),
	}
	if needDB && cfg.Database.Backend == config.BackendPostgres {
		rt.pool, err = postgres.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
	}
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			rt.log.Warn().Err(err).Msg("redis ping failed; continuing without redis")
			_ = client.Close()
		} else {
			rt.redis = client
		}
	}
	return rt, nil
}

func (rt *runtime) close() {
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
	if rt.pool != nil {
		rt.pool.Close()
	}
}

func (rt *runtime) repositories() repositories {
	if rt.pool == nil {
		rt.log.Warn().Msg("using the in-memory store; data is lost on exit")
		s := memory.NewStore()
		return repositories{
			Users:         s.Users(),
			Projects:      s.Projects(),
			Versions:      s.Versions(),
			Activities:    s.Activities(),
			Notifications: s.Notifications(),
			Tx:            s,
		}
	}
	q := db.New(rt.pool)
	return repositories{
		Users:         postgres.NewUserRepository(q),
		Projects:      postgres.NewProjectRepository(q, rt.pool),
		Versions:      postgres.NewVersionRepository(q),
		Activities:    postgres.NewActivityRepository(q),
		Notifications: postgres.NewNotificationRepository(q),
		Tx:            postgres.NewTxManager(rt.pool),
	}
}

// objectStorage also returns the storage health probe.
func (rt *runtime) objectStorage(ctx context.Context) (ports.ObjectStorage, handlers.Pinger, error) {
	c := rt.cfg.Storage
	if c.Backend == config.BackendMemory {
		s := storage.NewMemoryStorage("")
		return s, s, nil
	}
	s, err := storage.NewS3Storage(ctx, storage.S3Config{
		Endpoint:  c.Endpoint,
		Region:    c.Region,
		Bucket:    c.Bucket,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		UseSSL:    c.UseSSL,
	}, rt.log)
	if err != nil {
		return nil, nil, err
	}
	return s, s, nil
}

func (rt *runtime) webhookEmitter() ports.WebhookEmitter {
	if rt.cfg.Webhook.URL == "" {
		return webhook.NewNoopEmitter()
	}
	var opts []webhook.HTTPEmitterOption
	if rt.cfg.Webhook.Secret != "" {
		opts = append(opts, webhook.WithSecret(rt.cfg.Webhook.Secret))
	}
	return webhook.NewHTTPEmitter(rt.cfg.Webhook.URL, opts...)
}

func (rt *runtime) asynqOpt() asynq.RedisClientOpt {
	o := rt.redis.Options()
	return asynq.RedisClientOpt{Addr: o.Addr, Username: o.Username, Password: o.Password, DB: o.DB, TLSConfig: o.TLSConfig}
}

func (rt *runtime) checks(objects handlers.Pinger) map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{}
	if rt.pool != nil {
		checks["database"] = handlers.PingFunc(rt.pool.Ping)
	}
	if rt.redis != nil {
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error { return rt.redis.Ping(ctx).Err() })
	}
	if objects != nil {
		checks["storage"] = objects
	}
	return checks
}
