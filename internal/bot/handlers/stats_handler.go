package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vinobot/internal/metrics"
	"github.com/edgard/vinobot/internal/reporting"
)

// NewStatsHandler returns a handler for /stats: the count summary followed
// by the same snapshot as stats.xlsx.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")
	t := h.deps.Texts

	a, ok := actorFrom(update)
	if !ok {
		log.WarnContext(ctx, "Stats handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	snap, err := h.deps.Reporter.Snapshot(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to compute statistics", "error", err)
		reply(ctx, b, log, a.ChatID, t.T("error.generic"), nil)
		return
	}
	metrics.SetSubscribersTotal(snap.Total)

	artifactName := reporting.ArtifactName(reporting.KindStats, reporting.FormatXLSX)
	summary := t.T("stats.summary", snap.Total, snap.NewDay, snap.NewWeek, snap.NewMonth, artifactName)
	reply(ctx, b, log, a.ChatID, summary, nil)

	artifact, err := h.deps.Reporter.Export(ctx, reporting.KindStats, reporting.FormatXLSX)
	if err != nil {
		log.ErrorContext(ctx, "Failed to export statistics", "error", err)
		reply(ctx, b, log, a.ChatID, t.T("error.export"), nil)
		return
	}
	if err := sendArtifact(ctx, b, log, a.ChatID, artifact, ""); err != nil {
		reply(ctx, b, log, a.ChatID, t.T("error.export"), nil)
	}
}
