package broadcast

import (
	"context"
	"sync"

	"github.com/go-telegram/bot/models"
)

// StateStore persists one Conversation per administrator id.
// Load must return an Idle conversation, not an error, for unknown ids.
type StateStore interface {
	Load(ctx context.Context, adminID int64) (Conversation, error)
	Save(ctx context.Context, adminID int64, conv Conversation) error
	Delete(ctx context.Context, adminID int64) error
	// Take removes the conversation and returns what was stored in one step.
	Take(ctx context.Context, adminID int64) (Conversation, error)
}

var _ StateStore = (*MemoryStateStore)(nil)

// MemoryStateStore keeps conversations in process memory. Pending drafts are
// lost on restart.
type MemoryStateStore struct {
	mu    sync.Mutex
	convs map[int64]Conversation
}

// NewMemoryStateStore creates an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{convs: make(map[int64]Conversation)}
}

func (m *MemoryStateStore) Load(_ context.Context, adminID int64) (Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.convs[adminID]
	if !ok {
		return Conversation{State: StateIdle}, nil
	}
	return cloneConversation(conv), nil
}

func (m *MemoryStateStore) Save(_ context.Context, adminID int64, conv Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conv.State == StateIdle {
		delete(m.convs, adminID)
		return nil
	}
	m.convs[adminID] = cloneConversation(conv)
	return nil
}

func (m *MemoryStateStore) Delete(_ context.Context, adminID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.convs, adminID)
	return nil
}

func (m *MemoryStateStore) Take(_ context.Context, adminID int64) (Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.convs[adminID]
	if !ok {
		return Conversation{State: StateIdle}, nil
	}
	delete(m.convs, adminID)
	return cloneConversation(conv), nil
}

// cloneConversation copies the draft so callers never share it with the store.
func cloneConversation(conv Conversation) Conversation {
	if conv.Draft == nil {
		return conv
	}
	d := *conv.Draft
	if d.Attachment != nil {
		a := *d.Attachment
		d.Attachment = &a
	}
	if d.Entities != nil {
		d.Entities = append([]models.MessageEntity(nil), d.Entities...)
	}
	conv.Draft = &d
	return conv
}
