package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mx-space/asset-gateway/internal/config"
	"github.com/mx-space/asset-gateway/internal/middleware"
	"github.com/mx-space/asset-gateway/internal/modules/storage/asset"
	"github.com/mx-space/asset-gateway/internal/pkg/cloudinary"
	"github.com/mx-space/asset-gateway/internal/pkg/jwt"
	"github.com/mx-space/asset-gateway/internal/pkg/metrics"
	pkgredis "github.com/mx-space/asset-gateway/internal/pkg/redis"
	"go.uber.org/zap"
)

// App holds all application dependencies.
type App struct {
	cfg       *config.AppConfig
	router    *gin.Engine
	logger    *zap.Logger
	deleter   asset.Deleter
	cloudName string
	redis     *pkgredis.Client
	tokens    *jwt.Manager
	startedAt time.Time
}

// New initializes the application: config → Cloudinary client → Redis → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	client, err := cloudinary.New(cloudinary.Options{
		CloudName:  cfg.Cloudinary.CloudName,
		APIKey:     cfg.Cloudinary.APIKey,
		APISecret:  cfg.Cloudinary.APISecret,
		APIBase:    cfg.Cloudinary.APIBase,
		UploadBase: cfg.Cloudinary.UploadBase,
		Timeout:    cfg.Cloudinary.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}

	var rc *pkgredis.Client
	if cfg.Redis.Enabled() {
		rc, err = pkgredis.Connect(cfg.Redis.URLValue())
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
	}

	return build(logger, cfg, client, client.CloudName(), rc)
}

// build wires the router around an already constructed deleter.
func build(logger *zap.Logger, cfg *config.AppConfig, deleter asset.Deleter, cloudName string, rc *pkgredis.Client) (*App, error) {
	if err := metrics.Register(nil); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		deleter:   deleter,
		cloudName: cloudName,
		redis:     rc,
		startedAt: time.Now(),
	}

	if cfg.AuthEnabled() {
		tokens, err := jwt.New(cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		a.tokens = tokens
	} else {
		logger.Warn("jwt_secret is empty, deletion routes are open to any caller")
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())
	router.Use(cors.New(corsConfig(cfg)))
	a.router = router

	a.registerRoutes()
	return a, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return a.cfg.Addr() }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown releases connections held by the app.
func (a *App) Shutdown() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close failed", zap.Error(err))
		}
	}
}
