package mocks

import (
	"context"
	"sync"
)

// MessageRef identifies a message within a scope.
type MessageRef struct {
	Scope     int64
	MessageID int64
}

// Edit is a recorded EditMessage call.
type Edit struct {
	MessageRef
	Text string
}

// Messenger is a thread-safe recording implementation of ports.Messenger.
type Messenger struct {
	mu      sync.Mutex
	nextID  int64
	sent    []Edit
	edits   []Edit
	deleted []MessageRef

	// SendMessageFn allows overriding SendMessage behavior.
	SendMessageFn func(ctx context.Context, scope int64, text string) (int64, error)

	// EditMessageFn allows overriding EditMessage behavior.
	EditMessageFn func(ctx context.Context, scope, messageID int64, text string) error

	// DeleteMessageFn allows overriding DeleteMessage behavior.
	// Calls are recorded as deleted only when it returns nil.
	DeleteMessageFn func(ctx context.Context, scope, messageID int64) error
}

// NewMessenger creates a new mock messenger. Sent messages get ids starting at 10000.
func NewMessenger() *Messenger {
	return &Messenger{nextID: 10000}
}

// SendMessage records the message and returns a fresh id.
func (m *Messenger) SendMessage(ctx context.Context, scope int64, text string) (int64, error) {
	if m.SendMessageFn != nil {
		return m.SendMessageFn(ctx, scope, text)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.sent = append(m.sent, Edit{MessageRef: MessageRef{Scope: scope, MessageID: m.nextID}, Text: text})

	return m.nextID, nil
}

// EditMessage records the edit.
func (m *Messenger) EditMessage(ctx context.Context, scope, messageID int64, text string) error {
	if m.EditMessageFn != nil {
		if err := m.EditMessageFn(ctx, scope, messageID, text); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.edits = append(m.edits, Edit{MessageRef: MessageRef{Scope: scope, MessageID: messageID}, Text: text})

	return nil
}

// DeleteMessage records the deletion.
func (m *Messenger) DeleteMessage(ctx context.Context, scope, messageID int64) error {
	if m.DeleteMessageFn != nil {
		if err := m.DeleteMessageFn(ctx, scope, messageID); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleted = append(m.deleted, MessageRef{Scope: scope, MessageID: messageID})

	return nil
}

// Sent returns a copy of the sent messages.
func (m *Messenger) Sent() []Edit {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Edit(nil), m.sent...)
}

// Edits returns a copy of the recorded edits.
func (m *Messenger) Edits() []Edit {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Edit(nil), m.edits...)
}

// Deleted returns a copy of the successfully deleted messages.
func (m *Messenger) Deleted() []MessageRef {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]MessageRef(nil), m.deleted...)
}

// DeletedIDs returns the ids of deleted messages in deletion order.
func (m *Messenger) DeletedIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, 0, len(m.deleted))
	for _, d := range m.deleted {
		ids = append(ids, d.MessageID)
	}

	return ids
}
