package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/asset-gateway/internal/middleware"
	"github.com/mx-space/asset-gateway/internal/modules/storage/asset"
	"github.com/mx-space/asset-gateway/internal/pkg/metrics"
	"github.com/mx-space/asset-gateway/internal/pkg/response"
	"go.uber.org/zap"
)

func (a *App) registerRoutes() {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	r.GET("/health", a.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	handler := asset.NewHandler(asset.NewService(a.deleter, a.logger.Named("asset")))
	var authMW gin.HandlerFunc
	if a.tokens != nil {
		authMW = middleware.Auth(a.tokens)
	}

	var dedupeMW gin.HandlerFunc
	if a.redis != nil {
		dedupeMW = middleware.Idempotence(a.redis.Raw())
	}

	mws := a.deletionMiddleware()
	handler.RegisterRoutes(r.Group("/", mws...), authMW, dedupeMW)
	if prefix := a.cfg.RoutePrefix; prefix != "" {
		handler.RegisterRoutes(r.Group(prefix, mws...), authMW, dedupeMW)
	}
}

// deletionMiddleware runs before auth so that a valid token can lift the rate limit.
func (a *App) deletionMiddleware() []gin.HandlerFunc {
	var mws []gin.HandlerFunc
	if a.tokens != nil {
		mws = append(mws, middleware.OptionalAuth(a.tokens))
	}

	if a.cfg.RateLimit.Enable {
		var limiter middleware.Limiter
		if a.redis != nil {
			limiter = middleware.NewRedisLimiter(a.redis.Raw())
		} else {
			limiter = middleware.NewMemoryLimiter()
		}
		mws = append(mws, middleware.RateLimit(limiter, a.cfg.RateLimit.MaxPerSecond, a.cfg.RateLimit.ExemptAuthed, a.logger))
	}
	return mws
}

func (a *App) health(c *gin.Context) {
	body := gin.H{
		"ok":         true,
		"cloud_name": a.cloudName,
		"uptime":     humanizeDuration(time.Since(a.startedAt)),
	}
	if a.redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := a.redis.Ping(ctx); err != nil {
			a.logger.Warn("redis health check failed", zap.Error(err))
			body["redis"] = "down"
		} else {
			body["redis"] = "up"
		}
	}
	response.OK(c, body)
}
