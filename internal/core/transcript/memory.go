package transcript

import (
	"fmt"
	"slices"
	"sync"
)

// Memory is an in-memory Store. It is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	meta     Meta
	messages []Message
}

var _ Store = (*Memory)(nil)

// NewMemory creates a store holding copies of msgs.
func NewMemory(meta Meta, msgs []Message) *Memory {
	return &Memory{
		meta:     meta,
		messages: cloneMessages(msgs),
	}
}

// Len returns the number of messages.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// Meta returns the transcript header.
func (m *Memory) Meta() Meta {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meta
}

// Message returns a copy of the message at id.
func (m *Memory) Message(id int) (Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if id < 0 || id >= len(m.messages) {
		return Message{}, fmt.Errorf("message %d: %w", id, ErrMessageNotFound)
	}
	return cloneMessage(m.messages[id]), nil
}

// Messages returns copies of all messages in order.
func (m *Memory) Messages() []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneMessages(m.messages)
}

// SetActiveIndex selects the alternative at index and keeps Content in sync.
func (m *Memory) SetActiveIndex(id, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id < 0 || id >= len(m.messages) {
		return fmt.Errorf("message %d: %w", id, ErrMessageNotFound)
	}

	msg := &m.messages[id]
	if index < 0 || index >= len(msg.Swipes) {
		return fmt.Errorf("message %d swipe %d: %w", id, index, ErrIndexOutOfRange)
	}

	msg.ActiveIndex = index
	msg.Content = msg.Swipes[index]
	return nil
}

// Reload replaces the transcript. For every id where retain returns true and
// the new record is the same message (same speaker and alternatives), the
// current in-memory active index is kept. Retained ids whose record changed are
// returned as replaced; their index takes the file value.
// It also returns the number of messages after the reload.
func (m *Memory) Reload(meta Meta, msgs []Message, retain func(id int) bool) (n int, replaced []int) {
	next := cloneMessages(msgs)

	m.mu.Lock()
	defer m.mu.Unlock()

	if retain != nil {
		for id := range next {
			if id >= len(m.messages) || !retain(id) {
				continue
			}
			prev := m.messages[id]
			if !sameMessage(prev, next[id]) {
				replaced = append(replaced, id)
				continue
			}
			next[id].ActiveIndex = prev.ActiveIndex
			next[id].Content = prev.Content
		}
	}

	m.meta = meta
	m.messages = next
	return len(m.messages), replaced
}

// sameMessage reports whether b is a reloaded copy of a, ignoring the
// selection.
func sameMessage(a, b Message) bool {
	return a.Name == b.Name &&
		a.IsUser == b.IsUser &&
		a.IsSystem == b.IsSystem &&
		slices.Equal(a.Swipes, b.Swipes)
}

func cloneMessage(msg Message) Message {
	msg.Swipes = slices.Clone(msg.Swipes)
	return msg
}

func cloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, msg := range msgs {
		out[i] = cloneMessage(msg)
	}
	return out
}
