package handlers

import (
	"log/slog"

	"github.com/edgard/vinobot/internal/broadcast"
	"github.com/edgard/vinobot/internal/config"
	"github.com/edgard/vinobot/internal/database"
	"github.com/edgard/vinobot/internal/reporting"
	"github.com/edgard/vinobot/internal/texts"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger        *slog.Logger
	Config        *config.Config
	Store         database.Store
	Texts         *texts.Catalog
	Conversations *broadcast.Conversations
	Deliverer     *broadcast.Deliverer
	Reporter      *reporting.Reporter
}
