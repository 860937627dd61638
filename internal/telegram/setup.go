// Package telegram handles the setup and registration of Telegram bot handlers.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vinobot/internal/bot/handlers"
	"github.com/edgard/vinobot/internal/config"
	"github.com/edgard/vinobot/internal/texts"
)

// NewTelegramBot creates a new Telegram bot instance using the go-telegram/bot library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	prefix := token
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	log.Info("Telegram bot instance created successfully", "token_prefix", prefix+"...")
	return b, nil
}

// DispatchOptions returns the options that route updates to defaultHandler
// through mw. Updates are taken one at a time and each handler returns
// before the next update is dispatched.
func DispatchOptions(defaultHandler bot.HandlerFunc, mw ...bot.Middleware) []bot.Option {
	return []bot.Option{
		bot.WithMiddlewares(mw...),
		bot.WithDefaultHandler(defaultHandler),
		bot.WithWorkers(1),
		bot.WithNotAsyncHandlers(),
	}
}

// ApplyMiddleware wraps a handler function with a slice of middleware.
// Middleware are applied in reverse order so the first one in the slice is the outermost.
func ApplyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// RegisterHandlers registers command and callback handlers with the Telegram bot
// instance, wrapping each in its own middleware chain.
func RegisterHandlers(b *bot.Bot, logger *slog.Logger, registeredHandlers map[string]handlers.RegisteredHandler) error {
	if b == nil {
		return fmt.Errorf("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	if len(registeredHandlers) == 0 {
		log.Warn("No handlers provided for registration.")
		return nil
	}

	log.Info("Registering Telegram handlers...", "count", len(registeredHandlers))

	for key, regHandler := range registeredHandlers {
		if regHandler.Handler == nil {
			log.Warn("Skipping registration for nil handler", "key", key)
			continue
		}

		finalHandler := ApplyMiddleware(regHandler.Handler, regHandler.Middleware)
		if regHandler.MatchFunc != nil {
			b.RegisterHandlerMatchFunc(regHandler.MatchFunc, finalHandler)
		} else {
			b.RegisterHandler(regHandler.HandlerType, regHandler.Pattern, regHandler.MatchType, finalHandler)
		}
		log.Debug("Registered handler", "key", key, "pattern", regHandler.Pattern, "match_type", regHandler.MatchType, "middleware_count", len(regHandler.Middleware))
	}

	log.Info("Registered Telegram handlers successfully", "count", len(registeredHandlers))
	return nil
}

// SetupCommands switches the bot to long polling, dropping updates queued
// while it was offline, and publishes the command menu: public commands for
// everyone, the full set in each administrator's private chat.
func SetupCommands(ctx context.Context, b *bot.Bot, cfg *config.Config, t *texts.Catalog, logger *slog.Logger) error {
	log := logger.With("component", "command_setup")

	if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	public := handlers.BotCommands(t, false)
	if _, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: public,
		Scope:    &models.BotCommandScopeDefault{},
	}); err != nil {
		return fmt.Errorf("failed to set public commands: %w", err)
	}

	admin := handlers.BotCommands(t, true)
	for _, id := range cfg.Telegram.AdminIDs {
		_, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{
			Commands: admin,
			Scope:    &models.BotCommandScopeChat{ChatID: id},
		})
		if err != nil {
			// The admin may never have opened a chat with the bot.
			log.WarnContext(ctx, "Failed to set admin commands", "error", err, "user_id", id)
		}
	}

	log.InfoContext(ctx, "Bot commands published", "public", len(public), "admin", len(admin), "admins", len(cfg.Telegram.AdminIDs))
	return nil
}
