package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ferminotify/core/internal/config"
	"github.com/ferminotify/core/internal/database"
	"github.com/ferminotify/core/internal/middleware"
	"github.com/ferminotify/core/internal/modules/auth"
	pkgcron "github.com/ferminotify/core/internal/pkg/cron"
	"github.com/ferminotify/core/internal/pkg/mail"
	pkgredis "github.com/ferminotify/core/internal/pkg/redis"
	"github.com/ferminotify/core/internal/pkg/webpush"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	redis  *pkgredis.Client
	logger *zap.Logger
	cancel context.CancelFunc
	sched  *pkgcron.Scheduler
}

// deps are the outbound collaborators, replaceable in tests.
type deps struct {
	db     *gorm.DB
	redis  *pkgredis.Client
	mailer auth.Mailer
	pusher webpush.Sender
}

// New initializes the application: settings → DB → Redis → mail/push → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := applyRuntimeSettings(cfg, logger); err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	var rc *pkgredis.Client
	if cfg.Redis.Enable {
		rc, err = pkgredis.Connect(cfg.Redis.URLValue())
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
	} else {
		logger.Warn("redis disabled, rate limiting is off")
	}

	sender, err := mail.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("mail: %w", err)
	}

	pusher := webpush.New(webpush.Config{
		PublicKey:  cfg.Push.VAPIDPublicKey,
		PrivateKey: cfg.Push.VAPIDPrivateKey,
		Subject:    cfg.Push.Subject,
		TTL:        cfg.Push.TTL,
		Timeout:    cfg.Push.Timeout,
	})
	if !cfg.HasVAPIDKeys() {
		logger.Warn("missing VAPID keys, push broadcast is disabled")
	}

	a := build(logger, cfg, deps{db: db, redis: rc, mailer: sender, pusher: pusher})
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	go a.sched.Start(ctx)
	return a, nil
}

// build wires the router, modules and jobs around already opened dependencies.
func build(logger *zap.Logger, cfg *config.AppConfig, d deps) *App {
	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger.Named("HTTP")))
	router.Use(cors.New(corsConfig(cfg)))

	a := &App{
		cfg:    cfg,
		router: router,
		db:     d.db,
		redis:  d.redis,
		logger: logger,
		cancel: func() {},
		sched:  pkgcron.New(logger),
	}
	authSvc := a.registerRoutes(d)
	registerCronJobs(a.sched, authSvc, logger)
	return a
}

func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		c.AllowOriginFunc = newOriginPatterns(cfg.AllowedOrigins).allow
	} else {
		c.AllowAllOrigins = true
	}
	return c
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background jobs and closes the store and cache.
func (a *App) Shutdown() {
	a.cancel()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.logger.Warn("close database", zap.Error(err))
		}
	}
}
