package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// actor is whoever triggered an update and the chat to answer in.
// For button presses it is the presser, not the author of the message
// carrying the keyboard.
type actor struct {
	User     models.User
	ChatID   int64
	Callback *models.CallbackQuery
}

// actorFrom resolves the acting user of a message or callback update.
func actorFrom(update *models.Update) (actor, bool) {
	switch {
	case update == nil:
		return actor{}, false

	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		a := actor{User: cq.From, ChatID: cq.From.ID, Callback: cq}
		if msg := cq.Message.Message; msg != nil {
			a.ChatID = msg.Chat.ID
		} else if msg := cq.Message.InaccessibleMessage; msg != nil {
			a.ChatID = msg.Chat.ID
		}
		return a, true

	case update.Message != nil && update.Message.From != nil:
		return actor{User: *update.Message.From, ChatID: update.Message.Chat.ID}, true

	default:
		return actor{}, false
	}
}

// source labels the route an update came through, for metrics.
func (a actor) source() string {
	if a.Callback != nil {
		return "button"
	}
	return "command"
}

// reply sends text to chatID, logging a failed send.
func reply(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string, markup models.ReplyMarkup) {
	params := &bot.SendMessageParams{ChatID: chatID, Text: text}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := b.SendMessage(ctx, params); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}
