package whatsapp

import (
	"fmt"
	"strings"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"whatsapp-relay/internal/chat"
)

// legacyUserServer is the user-JID suffix used by web clients.
const legacyUserServer = "c.us"

// messageText returns the user-visible text of a message, including media
// captions.
func messageText(m *waE2E.Message) string {
	switch {
	case m == nil:
		return ""
	case m.GetConversation() != "":
		return m.GetConversation()
	case m.GetExtendedTextMessage() != nil:
		return m.GetExtendedTextMessage().GetText()
	case m.GetImageMessage() != nil:
		return m.GetImageMessage().GetCaption()
	case m.GetVideoMessage() != nil:
		return m.GetVideoMessage().GetCaption()
	case m.GetDocumentMessage() != nil:
		return m.GetDocumentMessage().GetCaption()
	}
	return ""
}

func contextInfo(m *waE2E.Message) *waE2E.ContextInfo {
	switch {
	case m.GetExtendedTextMessage() != nil:
		return m.GetExtendedTextMessage().GetContextInfo()
	case m.GetImageMessage() != nil:
		return m.GetImageMessage().GetContextInfo()
	case m.GetVideoMessage() != nil:
		return m.GetVideoMessage().GetContextInfo()
	case m.GetDocumentMessage() != nil:
		return m.GetDocumentMessage().GetContextInfo()
	}
	return nil
}

// toInbound converts a whatsmeow message event. It returns false for events
// the relay never answers: our own messages, status broadcasts and messages
// without text.
func toInbound(evt *events.Message) (chat.InboundMessage, bool) {
	if evt == nil || evt.Info.IsFromMe || evt.Info.Chat == types.StatusBroadcastJID {
		return chat.InboundMessage{}, false
	}
	msg := evt.Message
	text := messageText(msg)
	if text == "" {
		return chat.InboundMessage{}, false
	}

	mentioned := contextInfo(msg).GetMentionedJID()
	out := chat.InboundMessage{
		ID:        evt.Info.ID,
		Chat:      evt.Info.Chat.String(),
		Sender:    evt.Info.Sender.ToNonAD().String(),
		Text:      text,
		IsGroup:   evt.Info.IsGroup,
		Timestamp: evt.Info.Timestamp,
	}
	if len(mentioned) > 0 {
		out.Mentioned = make([]string, 0, len(mentioned))
		for _, id := range mentioned {
			if jid, err := types.ParseJID(id); err == nil {
				id = jid.ToNonAD().String()
			}
			out.Mentioned = append(out.Mentioned, id)
		}
	}
	return out, true
}

// ParseDestination accepts a full JID, a web-client id ("628...@c.us") or a
// bare phone number and returns the JID to send to.
func ParseDestination(id string) (types.JID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.EmptyJID, fmt.Errorf("empty destination")
	}
	if !strings.Contains(id, "@") {
		number := strings.TrimPrefix(strings.NewReplacer(" ", "", "-", "").Replace(id), "+")
		if number == "" || strings.Trim(number, "0123456789") != "" {
			return types.EmptyJID, fmt.Errorf("invalid destination %q", id)
		}
		return types.NewJID(number, types.DefaultUserServer), nil
	}
	if user, ok := strings.CutSuffix(id, "@"+legacyUserServer); ok {
		return types.NewJID(user, types.DefaultUserServer), nil
	}
	jid, err := types.ParseJID(id)
	if err != nil {
		return types.EmptyJID, fmt.Errorf("invalid destination %q: %w", id, err)
	}
	return jid, nil
}
