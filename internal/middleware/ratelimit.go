package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/asset-gateway/internal/pkg/response"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitWindow = time.Second

// Limiter counts hits for key within a window that starts on the first hit.
type Limiter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisLimiter shares counters across instances.
type RedisLimiter struct {
	rdb *redis.Client
}

func NewRedisLimiter(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{rdb: rdb}
}

func (l *RedisLimiter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		l.rdb.PExpire(ctx, key, window+time.Second)
	}
	return count, nil
}

// MemoryLimiter keeps counters in process. Used when Redis is not configured.
type MemoryLimiter struct {
	c *gocache.Cache
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{c: gocache.New(rateLimitWindow, time.Minute)}
}

func (l *MemoryLimiter) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	_ = l.c.Add(key, int64(0), window)
	return l.c.IncrementInt64(key, 1)
}

// RateLimit enforces max requests per second per client IP using a fixed window.
// Limiter errors fail open.
func RateLimit(limiter Limiter, max int, exemptAuthed bool, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if exemptAuthed && IsAuthenticated(c) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		key := fmt.Sprintf("asset-gateway:rate_limit:%s:%d", ip, time.Now().Unix())
		count, err := limiter.Incr(c.Request.Context(), key, rateLimitWindow)
		if err != nil {
			log.Debug("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if count > int64(max) {
			log.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			c.Header("Retry-After", "1")
			response.TooManyRequests(c)
			return
		}

		c.Next()
	}
}
