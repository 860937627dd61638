package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/vinobot/internal/metrics"
)

// newSQLMaintenanceTask creates the scheduled task function for running database maintenance.
// It also refreshes the subscriber gauge, which otherwise only moves on /stats.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled SQL maintenance task...")
		startTime := time.Now()

		err := deps.Store.RunSQLMaintenance(ctx)
		duration := time.Since(startTime)
		if err != nil {
			log.ErrorContext(ctx, "SQL maintenance task failed", "error", err, "duration", duration)
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		if total, err := deps.Store.CountSubscribers(ctx); err == nil {
			metrics.SetSubscribersTotal(total)
		} else {
			log.WarnContext(ctx, "Failed to refresh subscriber gauge", "error", err)
		}

		log.InfoContext(ctx, "Scheduled SQL maintenance task completed successfully", "duration", duration)
		return nil
	}
}
