// Package chattest provides an in-memory chat.Messenger for tests.
package chattest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"whatsapp-relay/internal/chat"
)

// Sent records one outbound message.
type Sent struct {
	Chat    string
	Text    string
	QuoteID string
}

// Messenger is a chat.Messenger that records sends. Zero value is logged out.
type Messenger struct {
	mu sync.Mutex

	SelfID    chat.Self
	Connected bool
	// Chats lists destinations Resolve accepts; nil accepts everything.
	Chats map[string]bool
	// Aliases maps ids to the chat id Resolve returns for them.
	Aliases map[string]string
	SendErr error
	// Ack overrides the acknowledgment returned by sends.
	Ack *chat.SendAck

	sent   []Sent
	typing []bool
	seq    int
}

// NewMessenger returns a connected messenger for self.
func NewMessenger(self chat.Self) *Messenger {
	return &Messenger{SelfID: self, Connected: true}
}

func (m *Messenger) Self() (chat.Self, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.Connected || m.SelfID.JID == "" {
		return chat.Self{}, false
	}
	return m.SelfID, true
}

func (m *Messenger) Resolve(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Chats != nil && !m.Chats[id] {
		return "", fmt.Errorf("%w: %s", chat.ErrChatNotFound, id)
	}
	if alias, ok := m.Aliases[id]; ok {
		return alias, nil
	}
	return id, nil
}

func (m *Messenger) SendText(_ context.Context, chatID, text string) (chat.SendAck, error) {
	return m.record(Sent{Chat: chatID, Text: text})
}

func (m *Messenger) Reply(_ context.Context, msg chat.InboundMessage, text string) (chat.SendAck, error) {
	return m.record(Sent{Chat: msg.Chat, Text: text, QuoteID: msg.ID})
}

func (m *Messenger) Typing(_ context.Context, _ string, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typing = append(m.typing, on)
	return nil
}

func (m *Messenger) record(s Sent) (chat.SendAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return chat.SendAck{}, m.SendErr
	}
	m.sent = append(m.sent, s)
	if m.Ack != nil {
		return *m.Ack, nil
	}
	m.seq++
	return chat.SendAck{ID: fmt.Sprintf("3EB0%04d", m.seq), FromMe: true, Timestamp: time.Now()}, nil
}

// Sent returns a copy of everything sent so far.
func (m *Messenger) Sent() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Sent(nil), m.sent...)
}

// TypingCalls returns the sequence of presence toggles.
func (m *Messenger) TypingCalls() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.typing...)
}

var _ chat.Messenger = (*Messenger)(nil)
