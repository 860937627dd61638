package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vinobot/internal/broadcast"
	"github.com/edgard/vinobot/internal/metrics"
)

// NewDefaultHandler returns the handler for updates no registered route
// matched. It feeds an administrator's open broadcast conversation and
// answers unknown commands with the command list.
func NewDefaultHandler(deps HandlerDeps) bot.HandlerFunc {
	return defaultHandler{deps}.Handle
}

type defaultHandler struct {
	deps HandlerDeps
}

func (h defaultHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "default")

	if update.CallbackQuery != nil {
		// Stale or foreign buttons; acknowledge so the client stops waiting.
		if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID}); err != nil {
			log.WarnContext(ctx, "Failed to answer callback query", "error", err)
		}
		log.DebugContext(ctx, "Ignoring unrouted callback query", "data", update.CallbackQuery.Data)
		return
	}

	a, ok := actorFrom(update)
	if !ok {
		return
	}
	msg := update.Message

	if h.deps.Config.Telegram.IsAdmin(a.User.ID) {
		if h.continueConversation(ctx, b, a, msg) {
			return
		}
	}

	if strings.HasPrefix(msg.Text, "/") {
		metrics.IncTelegramCommand("unknown", a.source())
		command := strings.Fields(msg.Text)[0]
		log.InfoContext(ctx, "Unknown command", "chat_id", a.ChatID, "user_id", a.User.ID, "command", command)

		isAdmin := h.deps.Config.Telegram.IsAdmin(a.User.ID)
		text := h.deps.Texts.T("unknown.command", command, CommandList(h.deps.Texts, isAdmin))
		reply(ctx, b, log, a.ChatID, text, nil)
		return
	}

	log.DebugContext(ctx, "Ignoring message outside of a conversation", "chat_id", a.ChatID, "user_id", a.User.ID)
}

// continueConversation advances an open broadcast conversation with msg.
// It returns false when the administrator has no open conversation.
func (h defaultHandler) continueConversation(ctx context.Context, b *bot.Bot, a actor, msg *models.Message) bool {
	log := h.deps.Logger.With("handler", "default", "user_id", a.User.ID)
	t := h.deps.Texts

	conv, err := h.deps.Conversations.Current(ctx, a.User.ID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load broadcast conversation", "error", err)
		reply(ctx, b, log, a.ChatID, t.T("error.generic"), nil)
		return true
	}

	switch conv.State {
	case broadcast.StateAwaitingContent:
		draft, ok := broadcast.DraftFromMessage(msg)
		if !ok {
			reply(ctx, b, log, a.ChatID, t.T("broadcast.prompt"), nil)
			return true
		}
		captured, err := h.deps.Conversations.Capture(ctx, a.User.ID, draft)
		if err != nil {
			log.ErrorContext(ctx, "Failed to capture broadcast draft", "error", err)
			reply(ctx, b, log, a.ChatID, t.T("error.generic"), nil)
			return true
		}
		if captured {
			reply(ctx, b, log, a.ChatID, t.T("broadcast.confirm_prompt"), confirmKeyboard(t))
		}
		return true

	case broadcast.StateAwaitingConfirmation:
		decision := broadcast.ParseDecision(msg.Text)
		if decision == broadcast.DecisionNone {
			reply(ctx, b, log, a.ChatID, t.T("broadcast.confirm_prompt"), confirmKeyboard(t))
			return true
		}
		resolveBroadcast(ctx, b, h.deps, log, a, decision)
		return true

	default:
		return false
	}
}
