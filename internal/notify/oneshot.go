package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"whatsapp-relay/internal/chat"
)

// Default delays around a one-shot send.
const (
	DefaultSettleDelay = 5 * time.Second
	DefaultFlushDelay  = 3 * time.Second
)

// OneShot sends a single message and reports whether it went out.
//
// The settle and flush delays only give the session time to finish syncing
// and to push the message out before the process exits. They do not confirm
// delivery.
type OneShot struct {
	messenger chat.Messenger
	settle    time.Duration
	flush     time.Duration
	log       zerolog.Logger
}

// NewOneShot returns a one-shot sender using m.
func NewOneShot(m chat.Messenger, settle, flush time.Duration, log zerolog.Logger) *OneShot {
	return &OneShot{
		messenger: m,
		settle:    settle,
		flush:     flush,
		log:       log.With().Str("component", "reminder").Logger(),
	}
}

// Run delivers text to target. It must be called after the session is ready.
func (o *OneShot) Run(ctx context.Context, target, text string) error {
	log := o.log.With().Str("target", target).Logger()

	log.Info().Dur("delay", o.settle).Msg("waiting for session to settle")
	if err := sleep(ctx, o.settle); err != nil {
		return err
	}

	chatID, err := o.messenger.Resolve(ctx, target)
	if err != nil {
		return o.fail(log, fmt.Errorf("%w: %w", ErrDestinationUnresolved, err))
	}

	ack, err := o.messenger.SendText(ctx, chatID, text)
	if err != nil {
		return o.fail(log, fmt.Errorf("send reminder to %s: %w", chatID, err))
	}
	if !ack.Valid() {
		return o.fail(log, fmt.Errorf("%w (id=%q from_me=%t)", ErrInvalidAck, ack.ID, ack.FromMe))
	}

	log.Info().Str("message_id", ack.ID).Dur("delay", o.flush).Msg("reminder sent, waiting for delivery")
	if err := sleep(ctx, o.flush); err != nil {
		return err
	}
	return nil
}

func (o *OneShot) fail(log zerolog.Logger, err error) error {
	log.Error().Err(err).Str("failure", ClassifySend(err)).Msg("reminder failed")
	return err
}
