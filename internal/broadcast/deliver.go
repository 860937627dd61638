package broadcast

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vinobot/internal/database"
	"github.com/edgard/vinobot/internal/metrics"
)

// Sender is the subset of the Telegram client used for delivery.
// *bot.Bot satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
}

// Recipients lists the subscribers a broadcast goes to.
type Recipients interface {
	ListSubscribers(ctx context.Context) ([]database.Subscriber, error)
}

// Result aggregates the outcome of one broadcast pass.
type Result struct {
	Success int
	Failed  int
}

// Total is the number of delivery attempts made.
func (r Result) Total() int { return r.Success + r.Failed }

// Deliverer sends a draft to every subscriber, one at a time.
type Deliverer struct {
	recipients Recipients
	interval   time.Duration
	logger     *slog.Logger
}

// NewDeliverer creates a Deliverer that waits interval between sends.
// A zero interval sends back to back.
func NewDeliverer(recipients Recipients, interval time.Duration, logger *slog.Logger) *Deliverer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Deliverer{
		recipients: recipients,
		interval:   interval,
		logger:     logger.With("component", "broadcast_deliverer"),
	}
}

// Deliver attempts exactly one send per subscriber in listing order.
// A failed send is logged and counted and never stops the pass. An error is
// returned only when the recipient list cannot be read or ctx ends, in which
// case Result holds the attempts made so far.
func (d *Deliverer) Deliver(ctx context.Context, sender Sender, draft Draft) (Result, error) {
	var res Result

	if !draft.Deliverable() {
		return res, fmt.Errorf("draft has neither text nor attachment")
	}

	subscribers, err := d.recipients.ListSubscribers(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list broadcast recipients: %w", err)
	}

	kind := draft.Kind()
	log := d.logger.With("kind", kind, "recipients", len(subscribers))
	log.InfoContext(ctx, "Starting broadcast delivery")
	startTime := time.Now()

	for i, sub := range subscribers {
		if i > 0 && d.interval > 0 {
			if err := sleepContext(ctx, d.interval); err != nil {
				log.WarnContext(ctx, "Broadcast interrupted", "error", err, "success", res.Success, "failed", res.Failed)
				return res, err
			}
		}
		if err := ctx.Err(); err != nil {
			log.WarnContext(ctx, "Broadcast interrupted", "error", err, "success", res.Success, "failed", res.Failed)
			return res, err
		}

		if err := d.sendOne(ctx, sender, sub.ID, draft); err != nil {
			res.Failed++
			metrics.IncBroadcastDelivery(kind, "failed")
			log.ErrorContext(ctx, "Broadcast delivery failed", "user_id", sub.ID, "error", err)
			continue
		}
		res.Success++
		metrics.IncBroadcastDelivery(kind, "sent")
		log.DebugContext(ctx, "Broadcast delivered", "user_id", sub.ID)
	}

	duration := time.Since(startTime)
	metrics.ObserveBroadcastDuration(duration.Seconds())
	log.InfoContext(ctx, "Broadcast delivery finished", "success", res.Success, "failed", res.Failed, "duration", duration)
	return res, nil
}

func (d *Deliverer) sendOne(ctx context.Context, sender Sender, chatID int64, draft Draft) error {
	if a := draft.Attachment; a != nil && a.FileID != "" {
		switch a.Kind {
		case AttachmentPhoto:
			_, err := sender.SendPhoto(ctx, &bot.SendPhotoParams{
				ChatID:          chatID,
				Photo:           &models.InputFileString{Data: a.FileID},
				Caption:         draft.Body,
				CaptionEntities: draft.Entities,
			})
			return err
		default:
			_, err := sender.SendDocument(ctx, &bot.SendDocumentParams{
				ChatID:          chatID,
				Document:        &models.InputFileString{Data: a.FileID},
				Caption:         draft.Body,
				CaptionEntities: draft.Entities,
			})
			return err
		}
	}

	_, err := sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:   chatID,
		Text:     draft.Body,
		Entities: draft.Entities,
	})
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
