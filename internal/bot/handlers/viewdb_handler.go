package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vinobot/internal/database"
	"github.com/edgard/vinobot/internal/reporting"
)

// NewViewDBHandler returns a handler for /viewdb: a plain-text subscriber listing.
func NewViewDBHandler(deps HandlerDeps) bot.HandlerFunc {
	return viewDBHandler{deps}.Handle
}

type viewDBHandler struct {
	deps HandlerDeps
}

func (h viewDBHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "viewdb")
	t := h.deps.Texts

	a, ok := actorFrom(update)
	if !ok {
		log.WarnContext(ctx, "ViewDB handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	subs, err := h.deps.Store.ListSubscribers(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list subscribers", "error", err)
		reply(ctx, b, log, a.ChatID, t.T("error.generic"), nil)
		return
	}

	if len(subs) == 0 {
		reply(ctx, b, log, a.ChatID, t.T("viewdb.empty"), nil)
		return
	}

	listing := reporting.Listing(t.T("viewdb.header"), subs, func(s database.Subscriber) string {
		return t.T("viewdb.row", s.ID, s.DisplayName(), s.JoinedAt.Format(reporting.TimestampLayout))
	}, reporting.MaxListingRunes)

	log.InfoContext(ctx, "Sending subscriber listing", "chat_id", a.ChatID, "rows", len(subs))
	reply(ctx, b, log, a.ChatID, listing, nil)
}
