package tasks

import (
	"context"
	"fmt"
)

// newExportCleanupTask removes export artifacts left behind by failed uploads.
func newExportCleanupTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "export_cleanup")

	return func(ctx context.Context) error {
		removed, err := deps.Reporter.PruneArtifacts(ctx, deps.Config.Export.MaxAge)
		if err != nil {
			return fmt.Errorf("export cleanup failed: %w", err)
		}
		if removed > 0 {
			log.InfoContext(ctx, "Removed stale export artifacts", "count", removed)
		} else {
			log.DebugContext(ctx, "No stale export artifacts")
		}
		return nil
	}
}
