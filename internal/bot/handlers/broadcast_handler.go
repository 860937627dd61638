package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vinobot/internal/broadcast"
	"github.com/edgard/vinobot/internal/metrics"
)

// summaryTimeout bounds the report sent after a delivery pass, which may
// run after the update context has ended.
const summaryTimeout = 10 * time.Second

// NewBroadcastHandler returns a handler for /broadcast: it opens the
// administrator's conversation and asks for the content.
func NewBroadcastHandler(deps HandlerDeps) bot.HandlerFunc {
	return broadcastHandler{deps}.Handle
}

type broadcastHandler struct {
	deps HandlerDeps
}

func (h broadcastHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "broadcast")

	a, ok := actorFrom(update)
	if !ok {
		log.WarnContext(ctx, "Broadcast handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	if err := h.deps.Conversations.Begin(ctx, a.User.ID); err != nil {
		log.ErrorContext(ctx, "Failed to start broadcast conversation", "error", err, "user_id", a.User.ID)
		reply(ctx, b, log, a.ChatID, h.deps.Texts.T("error.generic"), nil)
		return
	}

	reply(ctx, b, log, a.ChatID, h.deps.Texts.T("broadcast.prompt"), nil)
}

// NewBroadcastDecisionHandler returns a handler for the confirm and cancel
// buttons attached to a pending broadcast.
func NewBroadcastDecisionHandler(deps HandlerDeps) bot.HandlerFunc {
	return broadcastDecisionHandler{deps}.Handle
}

type broadcastDecisionHandler struct {
	deps HandlerDeps
}

func (h broadcastDecisionHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "broadcast_decision")

	a, ok := actorFrom(update)
	if !ok || a.Callback == nil {
		log.WarnContext(ctx, "Broadcast decision handler received update without callback query", "update_id", update.ID)
		return
	}

	decision := broadcast.ParseCallbackDecision(a.Callback.Data)
	if decision == broadcast.DecisionNone {
		log.WarnContext(ctx, "Unknown broadcast callback data", "data", a.Callback.Data, "user_id", a.User.ID)
		return
	}

	resolveBroadcast(ctx, b, h.deps, log, a, decision)
}

// resolveBroadcast applies a decision to the actor's conversation. A
// decision that does not match the current state is ignored.
func resolveBroadcast(ctx context.Context, b *bot.Bot, deps HandlerDeps, log *slog.Logger, a actor, decision broadcast.Decision) {
	t := deps.Texts

	draft, applied, err := deps.Conversations.Resolve(ctx, a.User.ID, decision)
	if err != nil {
		log.ErrorContext(ctx, "Failed to resolve broadcast", "error", err, "user_id", a.User.ID)
		reply(ctx, b, log, a.ChatID, t.T("error.generic"), nil)
		return
	}
	if !applied {
		log.DebugContext(ctx, "Broadcast decision does not apply to current state", "user_id", a.User.ID)
		return
	}

	if draft == nil {
		metrics.IncBroadcast("cancelled")
		reply(ctx, b, log, a.ChatID, t.T("broadcast.cancelled"), nil)
		return
	}

	if total, err := deps.Store.CountSubscribers(ctx); err == nil {
		reply(ctx, b, log, a.ChatID, t.T("broadcast.started", total), nil)
	} else {
		log.WarnContext(ctx, "Failed to count broadcast recipients", "error", err)
	}

	res, err := deps.Deliverer.Deliver(ctx, b, *draft)

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), summaryTimeout)
	defer cancel()

	switch {
	case err == nil:
		metrics.IncBroadcast("completed")
		reply(sendCtx, b, log, a.ChatID, t.T("broadcast.done", res.Success, res.Failed), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		metrics.IncBroadcast("aborted")
		reply(sendCtx, b, log, a.ChatID, t.T("broadcast.interrupted", res.Success, res.Failed), nil)
	default:
		metrics.IncBroadcast("aborted")
		log.ErrorContext(ctx, "Broadcast failed", "error", err, "user_id", a.User.ID)
		reply(sendCtx, b, log, a.ChatID, t.T("error.generic"), nil)
	}
}
