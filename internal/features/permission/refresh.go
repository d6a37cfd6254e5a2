package permission

import (
	"context"

	"go-bizsuite/internal/config"
	cron_feature "go-bizsuite/internal/features/cron"
)

const RefreshJobName = "permission-cache-refresh"

// RefreshJob reloads every cached scope on CACHE_REFRESH_SCHEDULE
func RefreshJob(svc PermissionService, cfg *config.Config) cron_feature.Job {
	return cron_feature.Job{
		Name:     RefreshJobName,
		Schedule: cfg.CacheRefreshSchedule,
		Run: func(ctx context.Context) (int, int, error) {
			refreshed, failed := svc.RefreshCached(ctx)
			return refreshed + failed, failed, nil
		},
	}
}

// RegisterRefreshJob is invoked by fx at startup
func RegisterRefreshJob(scheduler cron_feature.CronService, svc PermissionService, cfg *config.Config) error {
	return scheduler.Register(RefreshJob(svc, cfg))
}
