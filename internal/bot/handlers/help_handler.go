package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

// helpHandler lists the commands available to the caller.
type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	a, ok := actorFrom(update)
	if !ok {
		log.WarnContext(ctx, "Help handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /help command", "chat_id", a.ChatID, "user_id", a.User.ID)

	isAdmin := h.deps.Config.Telegram.IsAdmin(a.User.ID)
	text := h.deps.Texts.T("help.header") + "\n\n" + CommandList(h.deps.Texts, isAdmin)
	reply(ctx, b, log, a.ChatID, text, mainMenu(h.deps.Texts, isAdmin))
}
