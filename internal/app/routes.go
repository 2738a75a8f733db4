package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/ferminotify/core/internal/middleware"
	"github.com/ferminotify/core/internal/modules/auth"
	"github.com/ferminotify/core/internal/modules/health"
	"github.com/ferminotify/core/internal/modules/keyword"
	"github.com/ferminotify/core/internal/modules/preferences"
	"github.com/ferminotify/core/internal/modules/profile"
	"github.com/ferminotify/core/internal/modules/push"
	"github.com/ferminotify/core/internal/modules/telegram"
	"github.com/ferminotify/core/internal/modules/unsubscribe"
	"github.com/ferminotify/core/internal/pkg/response"
)

func (a *App) registerRoutes(d deps) *auth.Service {
	r := a.router
	logger := a.logger
	authMW := middleware.Auth()
	limiter := middleware.RateLimit(d.redis, a.cfg.RateLimit.Max, a.cfg.RateLimit.Window, logger.Named("RateLimit"))

	r.NoRoute(func(c *gin.Context) { response.NotFound(c) })
	r.NoMethod(func(c *gin.Context) { response.MethodNotAllowed(c) })

	root := r.Group("")

	authSvc := auth.NewService(d.db, d.mailer, auth.WithLogger(logger))
	auth.NewHandler(authSvc).RegisterRoutes(root, limiter)

	keyword.NewHandler(keyword.NewService(d.db, logger)).RegisterRoutes(root, authMW)
	preferences.NewHandler(preferences.NewService(d.db, logger)).RegisterRoutes(root, authMW)
	profile.NewHandler(profile.NewService(d.db, logger)).RegisterRoutes(root, authMW)
	telegram.NewHandler(telegram.NewService(d.db, nil, logger)).RegisterRoutes(root, authMW)
	unsubscribe.NewHandler(unsubscribe.NewService(d.db, logger)).RegisterRoutes(root)

	pushSvc := push.NewService(d.db, d.pusher,
		push.WithLogger(logger),
		push.WithConcurrency(a.cfg.Push.Concurrency),
	)
	push.NewHandler(pushSvc).RegisterRoutes(root, authMW, middleware.Operator(a.cfg.Push.NotifyAPIKey))

	checks := []health.Check{{Name: "database", Ping: func(ctx context.Context) error {
		sqlDB, err := d.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}}}
	if d.redis != nil {
		checks = append(checks, health.Check{Name: "redis", Ping: d.redis.Ping})
	}
	health.NewHandler(health.NewService(checks, a.sched, logger)).RegisterRoutes(root)

	return authSvc
}
