package utils

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"talktrack-backend/logging"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window request counter shared through Redis, so the
// limit holds across every API instance.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	logger *logging.Logger
}

// NewRateLimiter returns nil when redis is nil or limit is not positive;
// a nil limiter allows everything.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration, logger *logging.Logger) *RateLimiter {
	if client == nil || limit <= 0 {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RateLimiter{redis: client, limit: limit, window: window, logger: logger}
}

// Allow counts one hit for key and reports whether it is within the limit,
// along with how long until the window resets.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if rl == nil {
		return true, 0, nil
	}
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().UnixNano()/int64(rl.window))

	count, err := rl.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, 0, err
	}
	if count == 1 {
		rl.redis.Expire(ctx, redisKey, rl.window)
	}
	ttl, err := rl.redis.TTL(ctx, redisKey).Result()
	if err != nil || ttl < 0 {
		ttl = rl.window
	}
	return int(count) <= rl.limit, ttl, nil
}

// RateLimit limits requests per client IP within scope. Redis failures let
// the request through.
func RateLimit(rl *RateLimiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil {
			c.Next()
			return
		}
		ok, retry, err := rl.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			rl.logger.Warn("rate limiter unavailable", "error", err, "scope", scope)
			c.Next()
			return
		}
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(retry.Round(time.Second).Seconds())))
			RespondWithError(c, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		c.Next()
	}
}
