package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vinobot/internal/database"
	"github.com/edgard/vinobot/internal/metrics"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler subscribes the sender and shows the main menu.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")
	t := h.deps.Texts

	a, ok := actorFrom(update)
	if !ok {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /start command", "chat_id", a.ChatID, "user_id", a.User.ID)

	sub := &database.Subscriber{
		ID:           a.User.ID,
		Username:     a.User.Username,
		FirstName:    a.User.FirstName,
		LastName:     a.User.LastName,
		LanguageCode: a.User.LanguageCode,
		IsBot:        a.User.IsBot,
	}

	inserted, err := h.deps.Store.AddSubscriber(ctx, sub)
	if err != nil {
		metrics.IncSubscriptionChange("subscribe", "error")
		log.ErrorContext(ctx, "Failed to add subscriber", "error", err, "user_id", a.User.ID)
		reply(ctx, b, log, a.ChatID, t.T("error.generic"), nil)
		return
	}

	isAdmin := h.deps.Config.Telegram.IsAdmin(a.User.ID)
	text := t.T("start.already")
	if inserted {
		metrics.IncSubscriptionChange("subscribe", "applied")
		text = t.T("start.welcome")
		if isAdmin {
			text = t.T("start.welcome_admin")
		}
	} else {
		metrics.IncSubscriptionChange("subscribe", "noop")
	}

	reply(ctx, b, log, a.ChatID, text, mainMenu(t, isAdmin))
}
