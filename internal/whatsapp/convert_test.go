package whatsapp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	"whatsapp-relay/internal/chat"
)

var (
	user  = types.NewJID("6281234567890", types.DefaultUserServer)
	group = types.NewJID("120363000000000001", types.GroupServer)
)

func messageEvent(chatJID types.JID, isGroup bool, m *waE2E.Message) *events.Message {
	sender := user
	sender.Device = 12
	return &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Chat:    chatJID,
				Sender:  sender,
				IsGroup: isGroup,
			},
			ID:        "3EB0C431C26A1916E07B",
			Timestamp: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
		},
		Message: m,
	}
}

func TestToInbound_Conversation(t *testing.T) {
	evt := messageEvent(user, false, &waE2E.Message{Conversation: proto.String("cek stok")})

	msg, ok := toInbound(evt)
	require.True(t, ok)
	assert.Equal(t, chat.InboundMessage{
		ID:        "3EB0C431C26A1916E07B",
		Chat:      "6281234567890@s.whatsapp.net",
		Sender:    "6281234567890@s.whatsapp.net",
		Text:      "cek stok",
		Timestamp: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	}, msg)
}

func TestToInbound_GroupMention(t *testing.T) {
	evt := messageEvent(group, true, &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String("@6280000000001 stok semen?"),
			ContextInfo: &waE2E.ContextInfo{
				MentionedJID: []string{"6280000000001@s.whatsapp.net", "99887766554433:4@lid"},
			},
		},
	})

	msg, ok := toInbound(evt)
	require.True(t, ok)
	assert.True(t, msg.IsGroup)
	assert.Equal(t, "120363000000000001@g.us", msg.Chat)
	assert.Equal(t, "@6280000000001 stok semen?", msg.Text)
	assert.Equal(t, []string{"6280000000001@s.whatsapp.net", "99887766554433@lid"}, msg.Mentioned)
}

func TestToInbound_ImageCaption(t *testing.T) {
	evt := messageEvent(user, false, &waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{Caption: proto.String("foto nota")},
	})

	msg, ok := toInbound(evt)
	require.True(t, ok)
	assert.Equal(t, "foto nota", msg.Text)
}

func TestToInbound_Skipped(t *testing.T) {
	fromMe := messageEvent(user, false, &waE2E.Message{Conversation: proto.String("halo")})
	fromMe.Info.IsFromMe = true

	status := messageEvent(types.StatusBroadcastJID, false, &waE2E.Message{Conversation: proto.String("story")})

	noText := messageEvent(user, false, &waE2E.Message{
		ReactionMessage: &waE2E.ReactionMessage{Text: proto.String("👍")},
	})

	for name, evt := range map[string]*events.Message{"from me": fromMe, "status": status, "no text": noText, "nil": nil} {
		_, ok := toInbound(evt)
		assert.False(t, ok, name)
	}
}

func TestParseDestination(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"6281234567890@c.us", "6281234567890@s.whatsapp.net"},
		{"6281234567890@s.whatsapp.net", "6281234567890@s.whatsapp.net"},
		{"+62 812-3456-7890", "6281234567890@s.whatsapp.net"},
		{"120363000000000001@g.us", "120363000000000001@g.us"},
	}
	for _, tt := range tests {
		jid, err := ParseDestination(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, jid.String(), tt.in)
	}

	for _, bad := range []string{"", "  ", "toko-bangunan", "+"} {
		_, err := ParseDestination(bad)
		assert.Error(t, err, bad)
	}
}

func TestTranslate(t *testing.T) {
	self := func() (chat.Self, bool) { return chat.Self{JID: "6280000000001@s.whatsapp.net"}, true }
	offline := func() (chat.Self, bool) { return chat.Self{}, false }

	ev, ok := translate(&events.Connected{}, self)
	require.True(t, ok)
	assert.Equal(t, chat.EventReady{Self: chat.Self{JID: "6280000000001@s.whatsapp.net"}}, ev)

	_, ok = translate(&events.Connected{}, offline)
	assert.False(t, ok)

	ev, ok = translate(&events.Disconnected{}, self)
	require.True(t, ok)
	assert.False(t, ev.(chat.EventDisconnected).Fatal)

	ev, ok = translate(&events.LoggedOut{Reason: events.ConnectFailureLoggedOut}, self)
	require.True(t, ok)
	assert.True(t, ev.(chat.EventDisconnected).Fatal)

	ev, ok = translate(&events.StreamReplaced{}, self)
	require.True(t, ok)
	assert.True(t, ev.(chat.EventDisconnected).Fatal)

	ev, ok = translate(messageEvent(user, false, &waE2E.Message{Conversation: proto.String("halo")}), self)
	require.True(t, ok)
	assert.Equal(t, "halo", ev.(chat.EventMessage).Message.Text)

	_, ok = translate(&events.Receipt{}, self)
	assert.False(t, ok)
}

func TestQuotedReply(t *testing.T) {
	m := quotedReply(chat.InboundMessage{ID: "ABC", Sender: "6281234567890@s.whatsapp.net", Text: "stok?"}, "ada 3")

	ext := m.GetExtendedTextMessage()
	require.NotNil(t, ext)
	assert.Equal(t, "ada 3", ext.GetText())
	assert.Equal(t, "ABC", ext.GetContextInfo().GetStanzaID())
	assert.Equal(t, "6281234567890@s.whatsapp.net", ext.GetContextInfo().GetParticipant())
	assert.Equal(t, "stok?", ext.GetContextInfo().GetQuotedMessage().GetConversation())
}
