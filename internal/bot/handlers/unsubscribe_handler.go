package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vinobot/internal/metrics"
)

// NewUnsubscribeHandler returns a handler for the /unsubscribe command.
func NewUnsubscribeHandler(deps HandlerDeps) bot.HandlerFunc {
	return unsubscribeHandler{deps}.Handle
}

type unsubscribeHandler struct {
	deps HandlerDeps
}

func (h unsubscribeHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "unsubscribe")
	t := h.deps.Texts

	a, ok := actorFrom(update)
	if !ok {
		log.WarnContext(ctx, "Unsubscribe handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	removed, err := h.deps.Store.RemoveSubscriber(ctx, a.User.ID)
	if err != nil {
		metrics.IncSubscriptionChange("unsubscribe", "error")
		log.ErrorContext(ctx, "Failed to remove subscriber", "error", err, "user_id", a.User.ID)
		reply(ctx, b, log, a.ChatID, t.T("error.generic"), nil)
		return
	}

	if !removed {
		metrics.IncSubscriptionChange("unsubscribe", "noop")
		reply(ctx, b, log, a.ChatID, t.T("unsubscribe.not_subscribed"), nil)
		return
	}

	metrics.IncSubscriptionChange("unsubscribe", "applied")
	log.InfoContext(ctx, "User unsubscribed", "user_id", a.User.ID)
	reply(ctx, b, log, a.ChatID, t.T("unsubscribe.done"), nil)
}
