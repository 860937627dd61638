// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"
	"runtime/debug"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vinobot/internal/metrics"
)

// AdminOnly creates a middleware that lets the update through only when the
// acting user is in the administrator allow-list. The list is consulted on
// every call. For button presses the presser is checked.
func AdminOnly(deps HandlerDeps, command string) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			log := deps.Logger.With("middleware", "AdminOnly", "command", command)

			a, ok := actorFrom(update)
			if !ok {
				log.WarnContext(ctx, "Rejecting privileged update without a sender", "update_id", update.ID)
				metrics.IncAdminCommand(command, "unauthorized")
				return
			}

			if !deps.Config.Telegram.IsAdmin(a.User.ID) {
				log.WarnContext(ctx, "Unauthorized access attempt", "user_id", a.User.ID, "chat_id", a.ChatID, "source", a.source())
				metrics.IncAdminCommand(command, "unauthorized")
				reply(ctx, bot, log, a.ChatID, deps.Texts.T("error.access_denied"), nil)
				return // Stop processing
			}

			metrics.IncAdminCommand(command, "authorized")
			next(ctx, bot, update)
		}
	}
}

// AnswerCallback acknowledges a button press so the client stops its
// progress indicator, then runs the handler.
func AnswerCallback(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.CallbackQuery != nil {
				_, err := bot.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
					CallbackQueryID: update.CallbackQuery.ID,
				})
				if err != nil {
					deps.Logger.WarnContext(ctx, "Failed to answer callback query", "error", err, "callback_query_id", update.CallbackQuery.ID)
				}
			}
			next(ctx, bot, update)
		}
	}
}

// CountCommand records a command invocation in metrics.
func CountCommand(command string) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			source := "command"
			if update.CallbackQuery != nil {
				source = "button"
			}
			metrics.IncTelegramCommand(command, source)
			next(ctx, bot, update)
		}
	}
}

// Recover keeps a panicking handler from taking down the dispatcher. The
// panic is logged with its stack and the user gets the generic apology.
func Recover(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				metrics.IncHandlerPanic()
				deps.Logger.ErrorContext(ctx, "Handler panicked", "update_id", update.ID, "panic", r, "stack", string(debug.Stack()))

				if a, ok := actorFrom(update); ok {
					reply(ctx, bot, deps.Logger, a.ChatID, deps.Texts.T("error.generic"), nil)
				}
			}()
			next(ctx, bot, update)
		}
	}
}
