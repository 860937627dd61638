package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vinobot/internal/reporting"
)

// NewExportCSVHandler returns a handler for /exportdb: the subscriber table as CSV.
func NewExportCSVHandler(deps HandlerDeps) bot.HandlerFunc {
	return exportHandler{deps: deps, format: reporting.FormatCSV}.Handle
}

// NewExportXLSXHandler returns a handler for /exportxlsx: the subscriber table as XLSX.
func NewExportXLSXHandler(deps HandlerDeps) bot.HandlerFunc {
	return exportHandler{deps: deps, format: reporting.FormatXLSX}.Handle
}

type exportHandler struct {
	deps   HandlerDeps
	format reporting.Format
}

func (h exportHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "export", "format", h.format)

	a, ok := actorFrom(update)
	if !ok {
		log.WarnContext(ctx, "Export handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Admin requested subscriber export", "chat_id", a.ChatID, "user_id", a.User.ID)

	artifact, err := h.deps.Reporter.Export(ctx, reporting.KindSubscribers, h.format)
	if err != nil {
		log.ErrorContext(ctx, "Failed to export subscribers", "error", err)
		reply(ctx, b, log, a.ChatID, h.deps.Texts.T("error.export"), nil)
		return
	}

	if err := sendArtifact(ctx, b, log, a.ChatID, artifact, ""); err != nil {
		reply(ctx, b, log, a.ChatID, h.deps.Texts.T("error.export"), nil)
	}
}

// sendArtifact uploads artifact as a document under its display name and
// removes the file afterwards, whether or not the upload succeeded.
func sendArtifact(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, artifact *reporting.Artifact, caption string) error {
	defer func() {
		if err := artifact.Remove(); err != nil {
			log.WarnContext(ctx, "Failed to remove export artifact", "error", err, "path", artifact.Path)
		}
	}()

	f, err := os.Open(artifact.Path)
	if err != nil {
		log.ErrorContext(ctx, "Failed to open export artifact", "error", err, "path", artifact.Path)
		return fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	_, err = b.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileUpload{Filename: artifact.Name, Data: f},
		Caption:  caption,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send export artifact", "error", err, "chat_id", chatID, "name", artifact.Name)
		return fmt.Errorf("failed to send export: %w", err)
	}

	log.InfoContext(ctx, "Export artifact sent", "chat_id", chatID, "name", artifact.Name, "rows", artifact.Rows)
	return nil
}
