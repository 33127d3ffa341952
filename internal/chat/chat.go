// Package chat holds the transport-neutral values exchanged between the
// WhatsApp session and the relay: inbound messages, send acknowledgments and
// lifecycle events.
package chat

import (
	"context"
	"errors"
	"slices"
	"time"
)

// ErrChatNotFound is returned by Messenger.Resolve for destinations that do
// not exist or that this account cannot reach.
var ErrChatNotFound = errors.New("chat not found")

// InboundMessage is one received text message.
type InboundMessage struct {
	ID        string
	Chat      string // conversation the message arrived in
	Sender    string // author, device part stripped
	Text      string
	IsGroup   bool
	Mentioned []string // serialized JIDs mentioned in the message
	Timestamp time.Time
}

// Mentions reports whether any of ids appears in the mentioned set.
func (m InboundMessage) Mentions(ids ...string) bool {
	for _, id := range ids {
		if id != "" && slices.Contains(m.Mentioned, id) {
			return true
		}
	}
	return false
}

// Self identifies the logged-in account. LID is empty until the server has
// assigned one.
type Self struct {
	JID string
	LID string
}

// IDs returns the non-empty identifiers of the account.
func (s Self) IDs() []string {
	ids := make([]string, 0, 2)
	if s.JID != "" {
		ids = append(ids, s.JID)
	}
	if s.LID != "" {
		ids = append(ids, s.LID)
	}
	return ids
}

// SendAck is what the transport returns for an accepted send.
type SendAck struct {
	ID        string
	FromMe    bool
	Timestamp time.Time
}

// Valid reports whether the ack carries a message id sent by this account.
func (a SendAck) Valid() bool {
	return a.ID != "" && a.FromMe
}

// Messenger is the part of the chat session the relay needs.
type Messenger interface {
	// Self returns the account identity, or false when the session is not
	// connected and logged in.
	Self() (Self, bool)
	// Resolve maps a user-supplied destination (JID, "<number>@c.us" or bare
	// number) to a chat that exists.
	Resolve(ctx context.Context, id string) (string, error)
	SendText(ctx context.Context, chatID, text string) (SendAck, error)
	// Reply sends text to the chat of msg, quoting it.
	Reply(ctx context.Context, msg InboundMessage, text string) (SendAck, error)
	// Typing toggles the composing indicator in a chat.
	Typing(ctx context.Context, chatID string, on bool) error
}

// Event is one of EventReady, EventMessage or EventDisconnected.
type Event interface {
	event()
}

// EventReady fires every time the session (re)connects while logged in.
type EventReady struct {
	Self Self
}

// EventMessage carries one inbound text message.
type EventMessage struct {
	Message InboundMessage
}

// EventDisconnected reports a lost connection. Fatal disconnects (logged out,
// replaced by another session) will not recover on their own.
type EventDisconnected struct {
	Reason string
	Fatal  bool
}

func (EventReady) event()        {}
func (EventMessage) event()      {}
func (EventDisconnected) event() {}
