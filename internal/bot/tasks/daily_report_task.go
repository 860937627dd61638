package tasks

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"

	"github.com/edgard/vinobot/internal/metrics"
	"github.com/edgard/vinobot/internal/reporting"
)

// newDailyReportTask sends the subscriber counts to every administrator.
// A failed send to one administrator does not stop the others.
func newDailyReportTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "daily_report")

	return func(ctx context.Context) error {
		admins := deps.Config.Telegram.AdminIDs
		if len(admins) == 0 {
			log.InfoContext(ctx, "No administrators configured, skipping daily report")
			return nil
		}

		snap, err := deps.Reporter.Snapshot(ctx)
		if err != nil {
			return fmt.Errorf("failed to compute daily report: %w", err)
		}
		metrics.SetSubscribersTotal(snap.Total)

		text := deps.Texts.T("stats.daily", snap.TakenAt.Format(reporting.DateLayout), snap.Total, snap.NewDay, snap.NewWeek)

		var failed int
		for _, id := range admins {
			if _, err := deps.Sender.SendMessage(ctx, &bot.SendMessageParams{ChatID: id, Text: text}); err != nil {
				failed++
				log.ErrorContext(ctx, "Failed to send daily report", "error", err, "user_id", id)
			}
		}

		log.InfoContext(ctx, "Daily report sent", "admins", len(admins), "failed", failed, "total", snap.Total)
		if failed == len(admins) {
			return fmt.Errorf("daily report could not be delivered to any administrator")
		}
		return nil
	}
}
