// Package router answers inbound chat messages through the intent backend.
package router

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"whatsapp-relay/internal/chat"
	"whatsapp-relay/internal/intent"
	"whatsapp-relay/internal/normalize"
)

// Fixed replies.
const (
	ReplyNotUnderstood = "Maaf, saya tidak mengerti. Bisakah Anda mengulanginya dengan cara lain?"
	ReplyUnreachable   = "Maaf, bot tidak dapat terhubung ke layanan Dialogflow. Pastikan kredensial dan koneksi internet bot sudah benar."
	ReplyGenericError  = "Maaf, ada masalah saat memproses permintaan Anda. Silakan coba lagi nanti."
	ReplyMisconfigured = "Maaf, bot belum dikonfigurasi dengan benar. Silakan hubungi administrator."

	intentWithoutDetails = "Saya mengerti maksud Anda \"%s\", tetapi ada masalah saat mengambil informasi."
)

// Detector resolves text within a per-sender session.
type Detector interface {
	Detect(ctx context.Context, sessionKey, text string) (intent.Reply, error)
}

// Router filters, normalizes and answers inbound messages. It keeps no state
// between messages; conversation context lives in the intent backend, keyed
// by sender.
type Router struct {
	messenger chat.Messenger
	detector  Detector
	timeout   time.Duration
	log       zerolog.Logger
}

// New returns a router replying through m. A nil detector means the backend
// is not configured and every accepted message gets ReplyMisconfigured.
func New(m chat.Messenger, d Detector, timeout time.Duration, log zerolog.Logger) *Router {
	return &Router{
		messenger: m,
		detector:  d,
		timeout:   timeout,
		log:       log.With().Str("component", "router").Logger(),
	}
}

// Handle processes one inbound message to completion. Failures are logged,
// never returned.
func (r *Router) Handle(ctx context.Context, msg chat.InboundMessage) {
	log := r.log.With().Str("chat", msg.Chat).Str("sender", msg.Sender).Str("message_id", msg.ID).Logger()

	if msg.IsGroup && !r.mentioned(msg) {
		log.Debug().Msg("group message without mention, ignoring")
		return
	}

	text := normalize.Text(msg.Text)
	if text == "" {
		log.Debug().Msg("nothing left after normalization, ignoring")
		return
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	reply := r.answer(ctx, log, msg, text)

	if _, err := r.messenger.Reply(ctx, msg, reply); err != nil {
		log.Error().Err(err).Msg("send reply failed")
		return
	}
	log.Info().Msg("reply sent")
}

func (r *Router) mentioned(msg chat.InboundMessage) bool {
	self, ok := r.messenger.Self()
	if !ok {
		return false
	}
	return msg.Mentions(self.IDs()...)
}

func (r *Router) answer(ctx context.Context, log zerolog.Logger, msg chat.InboundMessage, text string) string {
	if r.detector == nil {
		log.Warn().Msg("intent backend not configured")
		return ReplyMisconfigured
	}

	r.typing(ctx, log, msg.Chat, true)
	defer r.typing(ctx, log, msg.Chat, false)

	log.Info().Str("text", text).Msg("forwarding to intent backend")
	res, err := r.detector.Detect(ctx, msg.Sender, text)
	if err != nil {
		failure := intent.Classify(err)
		log.Error().Err(err).Stringer("failure", failure).Msg("intent backend call failed")
		return FailureReply(failure)
	}
	if res.Text == "" && res.IntentName != "" {
		log.Warn().Str("intent", res.IntentName).Msg("intent matched without fulfillment text, check the webhook")
	}
	return SelectReply(res)
}

func (r *Router) typing(ctx context.Context, log zerolog.Logger, chatID string, on bool) {
	if err := r.messenger.Typing(ctx, chatID, on); err != nil {
		log.Debug().Err(err).Bool("on", on).Msg("chat presence failed")
	}
}

// SelectReply picks the text to send for a successful backend response:
// fulfillment text, else a note naming the matched intent, else a request to
// rephrase.
func SelectReply(res intent.Reply) string {
	switch {
	case res.Text != "":
		return res.Text
	case res.IntentName != "":
		return fmt.Sprintf(intentWithoutDetails, res.IntentName)
	default:
		return ReplyNotUnderstood
	}
}

// FailureReply is the reply for a failed backend call.
func FailureReply(f intent.Failure) string {
	if f == intent.FailureUnreachable {
		return ReplyUnreachable
	}
	return ReplyGenericError
}
