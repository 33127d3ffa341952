package whatsapp

import (
	"context"
	"fmt"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"

	"whatsapp-relay/internal/chat"
)

// Resolve implements chat.Messenger. Groups must be visible to this account
// and users must be registered on WhatsApp.
func (c *Client) Resolve(ctx context.Context, id string) (string, error) {
	jid, err := ParseDestination(id)
	if err != nil {
		return "", fmt.Errorf("%w: %w", chat.ErrChatNotFound, err)
	}

	switch jid.Server {
	case types.GroupServer:
		info, err := c.wa.GetGroupInfo(ctx, jid)
		if err != nil {
			return "", fmt.Errorf("%w: group %s: %w", chat.ErrChatNotFound, jid, err)
		}
		c.log.Debug().Str("jid", jid.String()).Str("name", info.Name).Msg("destination group resolved")
		return jid.String(), nil
	case types.DefaultUserServer:
		resp, err := c.wa.IsOnWhatsApp(ctx, []string{"+" + jid.User})
		if err != nil {
			return "", fmt.Errorf("lookup %s: %w", jid.User, err)
		}
		if len(resp) == 0 || !resp[0].IsIn {
			return "", fmt.Errorf("%w: %s is not on WhatsApp", chat.ErrChatNotFound, jid.User)
		}
		return resp[0].JID.String(), nil
	default:
		return jid.String(), nil
	}
}

// SendText implements chat.Messenger.
func (c *Client) SendText(ctx context.Context, chatID, text string) (chat.SendAck, error) {
	return c.send(ctx, chatID, &waE2E.Message{Conversation: proto.String(text)})
}

// Reply implements chat.Messenger. The reply quotes the inbound message.
func (c *Client) Reply(ctx context.Context, msg chat.InboundMessage, text string) (chat.SendAck, error) {
	return c.send(ctx, msg.Chat, quotedReply(msg, text))
}

func quotedReply(msg chat.InboundMessage, text string) *waE2E.Message {
	return &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(text),
			ContextInfo: &waE2E.ContextInfo{
				StanzaID:      proto.String(msg.ID),
				Participant:   proto.String(msg.Sender),
				QuotedMessage: &waE2E.Message{Conversation: proto.String(msg.Text)},
			},
		},
	}
}

func (c *Client) send(ctx context.Context, chatID string, m *waE2E.Message) (chat.SendAck, error) {
	to, err := types.ParseJID(chatID)
	if err != nil {
		return chat.SendAck{}, fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return chat.SendAck{}, fmt.Errorf("send rate limit: %w", err)
	}

	resp, err := c.wa.SendMessage(ctx, to, m)
	if err != nil {
		return chat.SendAck{}, err
	}
	return chat.SendAck{ID: resp.ID, FromMe: resp.ID != "", Timestamp: resp.Timestamp}, nil
}

// Typing implements chat.Messenger.
func (c *Client) Typing(ctx context.Context, chatID string, on bool) error {
	to, err := types.ParseJID(chatID)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}
	state := types.ChatPresencePaused
	if on {
		state = types.ChatPresenceComposing
	}
	return c.wa.SendChatPresence(ctx, to, state, types.ChatPresenceMediaText)
}

var _ chat.Messenger = (*Client)(nil)
