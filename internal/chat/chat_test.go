package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInboundMessage_Mentions(t *testing.T) {
	msg := InboundMessage{Mentioned: []string{"6281111111111@s.whatsapp.net", "123456789@lid"}}

	assert.True(t, msg.Mentions("6281111111111@s.whatsapp.net"))
	assert.True(t, msg.Mentions("", "123456789@lid"))
	assert.False(t, msg.Mentions("6282222222222@s.whatsapp.net"))
	assert.False(t, msg.Mentions(""))
	assert.False(t, InboundMessage{}.Mentions("6281111111111@s.whatsapp.net"))
}

func TestSelf_IDs(t *testing.T) {
	assert.Equal(t, []string{"1@s.whatsapp.net", "2@lid"}, Self{JID: "1@s.whatsapp.net", LID: "2@lid"}.IDs())
	assert.Equal(t, []string{"1@s.whatsapp.net"}, Self{JID: "1@s.whatsapp.net"}.IDs())
	assert.Empty(t, Self{}.IDs())
}

func TestSendAck_Valid(t *testing.T) {
	assert.True(t, SendAck{ID: "3EB0ABC", FromMe: true}.Valid())
	assert.False(t, SendAck{ID: "3EB0ABC"}.Valid())
	assert.False(t, SendAck{FromMe: true}.Valid())
}
