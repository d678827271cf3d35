package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const limiterPrefix = "nexus:limiter"

// NewLimiterStore keeps counters in Redis so every replica shares them.
// A nil client keeps them in process memory.
func NewLimiterStore(client *redis.Client) (limiter.Store, error) {
	if client == nil {
		return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: limiterPrefix}), nil
	}
	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: limiterPrefix})
}

// NewIPRateLimiter limits by client IP. rateFormatted: "100-M", "1000-H",
// "50-S". Empty disables. A nil store uses process memory.
func NewIPRateLimiter(rateFormatted string, store limiter.Store) (func(next http.Handler) http.Handler, error) {
	if rateFormatted == "" {
		return noopMiddleware, nil
	}
	rate, err := limiter.NewRateFromFormatted(rateFormatted)
	if err != nil {
		return nil, err
	}
	if store == nil {
		store = memory.NewStore()
	}
	instance := limiter.New(store, rate)
	return stdlib.NewMiddleware(instance, stdlib.WithLimitReachedHandler(limitReached)).Handler, nil
}

// NewUserRateLimiter limits by the authenticated user. Use after
// AuthValidator. Empty disables.
func NewUserRateLimiter(rateFormatted string, store limiter.Store) (func(next http.Handler) http.Handler, error) {
	if rateFormatted == "" {
		return noopMiddleware, nil
	}
	rate, err := limiter.NewRateFromFormatted(rateFormatted)
	if err != nil {
		return nil, err
	}
	if store == nil {
		store = memory.NewStore()
	}
	return userLimitMiddleware(limiter.New(store, rate)), nil
}

func userLimitMiddleware(instance *limiter.Limiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			ctx, err := instance.Increment(r.Context(), "user:"+userID.String(), 1)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
			if ctx.Reset > 0 {
				w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", ctx.Reset))
			}
			if ctx.Reached {
				limitReached(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func limitReached(w http.ResponseWriter, r *http.Request) {
	writeErr(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
}

func noopMiddleware(next http.Handler) http.Handler {
	return next
}
