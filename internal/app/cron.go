package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ferminotify/core/internal/modules/auth"
	pkgcron "github.com/ferminotify/core/internal/pkg/cron"
)

const cleanupRefreshTokensJob = "cleanup_refresh_tokens"

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, authSvc *auth.Service, logger *zap.Logger) {
	cronLogger := logger.Named("CronService")

	sched.Register(pkgcron.Job{
		Name:        cleanupRefreshTokensJob,
		Description: "Delete expired refresh tokens",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			n, err := authSvc.CleanupExpired(ctx)
			if err != nil {
				cronLogger.Warn("cleanup refresh tokens failed", zap.Error(err))
				return err
			}
			cronLogger.Info("expired refresh tokens deleted", zap.Int64("count", n))
			return nil
		},
	})
}
