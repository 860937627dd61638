// Package broadcast implements the administrator broadcast conversation:
// a per-admin state machine that collects a draft, waits for an explicit
// confirmation and hands the draft to the Deliverer for fan-out.
package broadcast

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot/models"
)

// State is the position of one administrator in the broadcast flow.
type State int

const (
	StateIdle State = iota
	StateAwaitingContent
	StateAwaitingConfirmation
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingContent:
		return "awaiting_content"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// AttachmentKind selects the Telegram method used to deliver an attachment.
type AttachmentKind string

const (
	AttachmentDocument AttachmentKind = "document"
	AttachmentPhoto    AttachmentKind = "photo"
)

// Attachment references a file already uploaded to Telegram.
type Attachment struct {
	Kind   AttachmentKind `json:"kind"`
	FileID string         `json:"file_id"`
}

// Draft is the unpersisted content of a broadcast being composed.
// When Attachment is set, Body is sent as its caption.
type Draft struct {
	Body       string                 `json:"body,omitempty"`
	Entities   []models.MessageEntity `json:"entities,omitempty"`
	Attachment *Attachment            `json:"attachment,omitempty"`
}

// Deliverable reports whether the draft carries anything to send.
func (d Draft) Deliverable() bool {
	return d.Body != "" || (d.Attachment != nil && d.Attachment.FileID != "")
}

// Kind names the delivery method the draft will use.
func (d Draft) Kind() string {
	if d.Attachment != nil && d.Attachment.FileID != "" {
		return string(d.Attachment.Kind)
	}
	return "text"
}

// DraftFromMessage extracts broadcast content from a message.
// Text, documents and photos are accepted; for photos the largest size is used.
// It returns false for any other kind of message (stickers, voice, etc.).
func DraftFromMessage(msg *models.Message) (Draft, bool) {
	if msg == nil {
		return Draft{}, false
	}

	switch {
	case msg.Document != nil:
		return Draft{
			Body:       msg.Caption,
			Entities:   msg.CaptionEntities,
			Attachment: &Attachment{Kind: AttachmentDocument, FileID: msg.Document.FileID},
		}, true
	case len(msg.Photo) > 0:
		largest := msg.Photo[len(msg.Photo)-1]
		return Draft{
			Body:       msg.Caption,
			Entities:   msg.CaptionEntities,
			Attachment: &Attachment{Kind: AttachmentPhoto, FileID: largest.FileID},
		}, true
	case msg.Text != "":
		return Draft{Body: msg.Text, Entities: msg.Entities}, true
	default:
		return Draft{}, false
	}
}

// Conversation is the state slot held for one administrator.
type Conversation struct {
	State State  `json:"state"`
	Draft *Draft `json:"draft,omitempty"`
}

// Decision is the meaning of an input received while awaiting confirmation.
type Decision int

const (
	DecisionNone Decision = iota
	DecisionConfirm
	DecisionCancel
)

// Tokens accepted while awaiting confirmation.
const (
	ConfirmWord     = "да"
	CancelWord      = "нет"
	ConfirmCallback = "broadcast:confirm"
	CancelCallback  = "broadcast:cancel"
)

// ParseDecision maps a free-text reply to a decision, ignoring case and surrounding space.
func ParseDecision(text string) Decision {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case ConfirmWord:
		return DecisionConfirm
	case CancelWord:
		return DecisionCancel
	default:
		return DecisionNone
	}
}

// ParseCallbackDecision maps inline button data to a decision.
func ParseCallbackDecision(data string) Decision {
	switch data {
	case ConfirmCallback:
		return DecisionConfirm
	case CancelCallback:
		return DecisionCancel
	default:
		return DecisionNone
	}
}

// Conversations drives the broadcast state machine on top of a StateStore.
// Each administrator owns an independent slot keyed by user id.
type Conversations struct {
	store  StateStore
	logger *slog.Logger
}

// NewConversations creates a state machine backed by store.
func NewConversations(store StateStore, logger *slog.Logger) *Conversations {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Conversations{
		store:  store,
		logger: logger.With("component", "broadcast_conversations"),
	}
}

// Current returns the conversation of adminID. Absent slots are Idle.
func (c *Conversations) Current(ctx context.Context, adminID int64) (Conversation, error) {
	conv, err := c.store.Load(ctx, adminID)
	if err != nil {
		return Conversation{}, fmt.Errorf("failed to load conversation for %d: %w", adminID, err)
	}
	return conv, nil
}

// Begin moves adminID to AwaitingContent, discarding any previous draft.
func (c *Conversations) Begin(ctx context.Context, adminID int64) error {
	prev, err := c.Current(ctx, adminID)
	if err != nil {
		return err
	}
	if prev.State != StateIdle {
		c.logger.InfoContext(ctx, "Discarding pending broadcast draft", "user_id", adminID, "previous_state", prev.State.String())
	}

	if err := c.store.Save(ctx, adminID, Conversation{State: StateAwaitingContent}); err != nil {
		return fmt.Errorf("failed to start broadcast for %d: %w", adminID, err)
	}
	c.logger.InfoContext(ctx, "Broadcast started", "user_id", adminID)
	return nil
}

// Capture stores draft and moves to AwaitingConfirmation.
// It returns false without changing anything unless adminID is awaiting
// content and the draft is deliverable.
func (c *Conversations) Capture(ctx context.Context, adminID int64, draft Draft) (bool, error) {
	conv, err := c.Current(ctx, adminID)
	if err != nil {
		return false, err
	}
	if conv.State != StateAwaitingContent || !draft.Deliverable() {
		return false, nil
	}

	next := Conversation{State: StateAwaitingConfirmation, Draft: &draft}
	if err := c.store.Save(ctx, adminID, next); err != nil {
		return false, fmt.Errorf("failed to save broadcast draft for %d: %w", adminID, err)
	}
	c.logger.InfoContext(ctx, "Broadcast draft captured", "user_id", adminID, "kind", draft.Kind())
	return true, nil
}

// Resolve applies a confirm or cancel decision.
// On confirm it returns the draft to deliver; on cancel it returns nil.
// In both cases the slot is cleared. The bool is false when the decision
// does not apply to the current state, which is then left untouched.
func (c *Conversations) Resolve(ctx context.Context, adminID int64, decision Decision) (*Draft, bool, error) {
	if decision == DecisionNone {
		return nil, false, nil
	}

	conv, err := c.Current(ctx, adminID)
	if err != nil {
		return nil, false, err
	}
	if conv.State != StateAwaitingConfirmation || conv.Draft == nil {
		return nil, false, nil
	}

	// Only the caller that takes the draft may act on it.
	conv, err = c.store.Take(ctx, adminID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to clear conversation for %d: %w", adminID, err)
	}
	if conv.State != StateAwaitingConfirmation || conv.Draft == nil {
		if conv.State != StateIdle {
			if err := c.store.Save(ctx, adminID, conv); err != nil {
				return nil, false, fmt.Errorf("failed to restore conversation for %d: %w", adminID, err)
			}
		}
		return nil, false, nil
	}

	if decision == DecisionCancel {
		c.logger.InfoContext(ctx, "Broadcast cancelled", "user_id", adminID)
		return nil, true, nil
	}

	c.logger.InfoContext(ctx, "Broadcast confirmed", "user_id", adminID, "kind", conv.Draft.Kind())
	return conv.Draft, true, nil
}

// Reset clears the slot of adminID unconditionally.
func (c *Conversations) Reset(ctx context.Context, adminID int64) error {
	if err := c.store.Delete(ctx, adminID); err != nil {
		return fmt.Errorf("failed to clear conversation for %d: %w", adminID, err)
	}
	return nil
}
