// Package app runs the relay: it consumes chat session events and hands them
// to the router, the one-shot reminder or the recurring scheduler depending
// on the run mode.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"whatsapp-relay/internal/chat"
)

// ErrTransportLost is returned when the chat session ends for good.
var ErrTransportLost = errors.New("chat session lost")

// ErrReminderInterrupted is returned in reminder mode when Run stops before
// the one-shot reminder finished.
var ErrReminderInterrupted = errors.New("reminder interrupted before completion")

// Handler answers one inbound message.
type Handler interface {
	Handle(ctx context.Context, msg chat.InboundMessage)
}

// Reminder sends one message to a target.
type Reminder interface {
	Run(ctx context.Context, target, text string) error
}

// Scheduler runs until ctx is done.
type Scheduler interface {
	Run(ctx context.Context) error
}

// Dispatcher is the single consumer of session events.
type Dispatcher struct {
	mode      RunMode
	handler   Handler
	reminder  Reminder
	scheduler Scheduler
	log       zerolog.Logger
}

// NewDispatcher wires the components for mode. handler is required in
// interactive mode and reminder in reminder mode; scheduler may be nil to
// disable recurring reminders.
func NewDispatcher(mode RunMode, handler Handler, reminder Reminder, scheduler Scheduler, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		mode:      mode,
		handler:   handler,
		reminder:  reminder,
		scheduler: scheduler,
		log:       log.With().Str("component", "dispatcher").Str("mode", mode.Mode.String()).Logger(),
	}
}

// Run consumes events until ctx ends, the one-shot reminder finishes, or the
// session is lost. It returns nil on a clean interactive stop and after a
// successful one-shot send; a reminder-mode run that ends any other way
// returns an error. Background work is cancelled and waited for before Run
// returns.
func (d *Dispatcher) Run(ctx context.Context, events <-chan chat.Event) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	result := make(chan error, 1)
	started := false
	finished := false

	err := func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case err := <-result:
				finished = true
				return err
			case ev, ok := <-events:
				if !ok {
					return fmt.Errorf("%w: event stream closed", ErrTransportLost)
				}
				switch e := ev.(type) {
				case chat.EventReady:
					d.log.Info().Str("jid", e.Self.JID).Msg("chat session ready")
					if !started {
						started = true
						d.start(gctx, g, result)
					}
				case chat.EventMessage:
					if d.mode.Mode != ModeInteractive {
						continue
					}
					msg := e.Message
					g.Go(func() error {
						d.handler.Handle(gctx, msg)
						return nil
					})
				case chat.EventDisconnected:
					if e.Fatal {
						d.log.Error().Str("reason", e.Reason).Msg("chat session ended")
						return fmt.Errorf("%w: %s", ErrTransportLost, e.Reason)
					}
					d.log.Warn().Str("reason", e.Reason).Msg("chat session disconnected, waiting for reconnect")
				}
			}
		}
	}()

	cancel()
	if werr := g.Wait(); err == nil {
		err = werr
	}
	if err == nil && d.mode.Mode == ModeReminder && !finished {
		// Stopped before the one-shot reported back.
		select {
		case err = <-result:
		default:
			err = fmt.Errorf("%w: %w", ErrReminderInterrupted, context.Cause(gctx))
		}
	}
	return err
}

// start runs the work that waits for the first ready event.
func (d *Dispatcher) start(ctx context.Context, g *errgroup.Group, result chan<- error) {
	switch {
	case d.mode.Mode == ModeReminder:
		g.Go(func() error {
			result <- d.reminder.Run(ctx, d.mode.TargetID, d.mode.Message)
			return nil
		})
	case d.scheduler != nil:
		g.Go(func() error {
			if err := d.scheduler.Run(ctx); err != nil {
				d.log.Error().Err(err).Msg("recurring reminder stopped")
			}
			return nil
		})
	default:
		d.log.Info().Msg("recurring reminder not configured")
	}
}
