package lockout

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/ports"
)

const redisPrefix = "nexus:lockout:"

// RedisStore shares lockout state between replicas. Failures are counted in
// a key that expires after the cooldown; reaching max sets a lock key with
// the same TTL. Redis errors fail open.
type RedisStore struct {
	client   *redis.Client
	max      int
	cooldown time.Duration
	log      zerolog.Logger
}

func NewRedisStore(client *redis.Client, maxAttempts, cooldownSeconds int, log zerolog.Logger) *RedisStore {
	cd := time.Duration(cooldownSeconds) * time.Second
	if cd <= 0 {
		cd = 15 * time.Minute
	}
	return &RedisStore{client: client, max: maxAttempts, cooldown: cd, log: log}
}

func failKey(email string) string { return redisPrefix + "fail:" + key(email) }
func lockKey(email string) string { return redisPrefix + "lock:" + key(email) }

func (s *RedisStore) IsLocked(ctx context.Context, email string) (bool, int) {
	if s.max <= 0 {
		return false, 0
	}
	ttl, err := s.client.PTTL(ctx, lockKey(email)).Result()
	if err != nil {
		s.log.Warn().Err(err).Msg("lockout lookup failed")
		return false, 0
	}
	// -2 means missing, -1 means no expiry; neither is a lock we set.
	if ttl <= 0 {
		return false, 0
	}
	secs := int(ttl.Seconds())
	if secs < 1 {
		secs = 1
	}
	return true, secs
}

func (s *RedisStore) RecordFailure(ctx context.Context, email string) {
	if s.max <= 0 {
		return
	}
	fk := failKey(email)
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, fk)
	pipe.Expire(ctx, fk, s.cooldown)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Msg("lockout record failed")
		return
	}
	if incr.Val() < int64(s.max) {
		return
	}
	pipe = s.client.TxPipeline()
	pipe.Set(ctx, lockKey(email), 1, s.cooldown)
	pipe.Del(ctx, fk)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Msg("lockout lock failed")
	}
}

func (s *RedisStore) RecordSuccess(ctx context.Context, email string) {
	if s.max <= 0 {
		return
	}
	if err := s.client.Del(ctx, failKey(email), lockKey(email)).Err(); err != nil {
		s.log.Warn().Err(err).Msg("lockout reset failed")
	}
}

var _ ports.LoginLockoutStore = (*RedisStore)(nil)
