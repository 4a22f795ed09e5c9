package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"olo_mining/internal/metrics"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter built on INCR/EXPIRE. A nil client
// lets every request through.
type RedisLimiter struct {
	client *redis.Client
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

// ConnectRedisLimiter dials Redis and returns a fail-open limiter if the ping fails.
func ConnectRedisLimiter(addr, password string, db int) *RedisLimiter {
	if addr == "" {
		return NewRedisLimiter(nil)
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return NewRedisLimiter(nil)
	}
	return NewRedisLimiter(client)
}

func (l *RedisLimiter) Enabled() bool {
	return l != nil && l.client != nil
}

// Limit counts requests per install (or per client IP before a session
// exists). key format: rl:<window_seconds>:<identifier>
func (l *RedisLimiter) Limit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Enabled() {
			c.Next()
			return
		}

		ident := GetInstallID(c)
		if ident == "" {
			ident = c.ClientIP()
		}
		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ident
		ctx := c.Request.Context()

		val, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			l.client.Expire(ctx, key, window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

		if val > int64(maxRequests) {
			metrics.RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		metrics.RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}

func (l *RedisLimiter) Close() error {
	if !l.Enabled() {
		return nil
	}
	return l.client.Close()
}
