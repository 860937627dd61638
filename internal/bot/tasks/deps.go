// Package tasks implements the scheduled jobs of the bot: database
// maintenance, the daily statistics report and export cleanup.
package tasks

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vinobot/internal/config"
	"github.com/edgard/vinobot/internal/database"
	"github.com/edgard/vinobot/internal/reporting"
	"github.com/edgard/vinobot/internal/texts"
)

// MessageSender is the part of the Telegram client the tasks use.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Config   *config.Config
	Reporter *reporting.Reporter
	Texts    *texts.Catalog
	Sender   MessageSender
}
