// Package whatsapp owns the WhatsApp Web session: the sqlite-backed device
// store, QR pairing, inbound events and outbound sends.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal/v3"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"golang.org/x/time/rate"

	"whatsapp-relay/internal/chat"
)

// Config controls the session.
type Config struct {
	// StoreDSN is the sqlite DSN of the device store.
	StoreDSN string
	// SendInterval is the minimum spacing between outbound messages. Zero
	// disables limiting.
	SendInterval time.Duration
	// EventBuffer is the capacity of the events channel.
	EventBuffer int
	// QROutput receives the pairing QR code; stdout when nil.
	QROutput io.Writer
}

// ErrPairingFailed is returned by Connect when the QR login did not complete.
var ErrPairingFailed = errors.New("whatsapp pairing failed")

// Client wraps a whatsmeow client and exposes it as a chat.Messenger plus an
// event stream.
type Client struct {
	wa        *whatsmeow.Client
	container *sqlstore.Container
	limiter   *rate.Limiter
	events    chan chat.Event
	done      chan struct{}
	closeOnce sync.Once
	qrOut     io.Writer
	log       zerolog.Logger
}

// Open loads (or creates) the device from the store and prepares a client.
// Nothing connects until Connect.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	log = log.With().Str("component", "whatsapp").Logger()

	dbLog := waLog.Zerolog(log.With().Str("module", "database").Logger().Level(zerolog.WarnLevel))
	container, err := sqlstore.New(ctx, "sqlite3", cfg.StoreDSN, dbLog)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("load device: %w", err)
	}

	wa := whatsmeow.NewClient(device, waLog.Zerolog(log.With().Str("module", "client").Logger().Level(zerolog.WarnLevel)))

	limit := rate.Inf
	if cfg.SendInterval > 0 {
		limit = rate.Every(cfg.SendInterval)
	}
	buffer := cfg.EventBuffer
	if buffer <= 0 {
		buffer = 64
	}
	qrOut := cfg.QROutput
	if qrOut == nil {
		qrOut = os.Stdout
	}

	c := &Client{
		wa:        wa,
		container: container,
		limiter:   rate.NewLimiter(limit, 1),
		events:    make(chan chat.Event, buffer),
		done:      make(chan struct{}),
		qrOut:     qrOut,
		log:       log,
	}
	wa.AddEventHandler(c.handleEvent)
	return c, nil
}

// Events delivers session events in arrival order. It is never closed; stop
// reading once Close has been called.
func (c *Client) Events() <-chan chat.Event {
	return c.events
}

// Connect opens the connection. A device that has never been paired prints a
// QR code and blocks until it is scanned, expires or ctx ends.
func (c *Client) Connect(ctx context.Context) error {
	if c.wa.Store.ID != nil {
		if err := c.wa.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		c.log.Info().Str("jid", c.wa.Store.ID.String()).Msg("connected with stored session")
		return nil
	}

	qrChan, err := c.wa.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("open qr channel: %w", err)
	}
	if err := c.wa.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	c.log.Info().Msg("not paired yet, scan the QR code with WhatsApp > Linked devices")
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, c.qrOut)
		case "success":
			c.log.Info().Msg("pairing successful")
			return nil
		case "timeout":
			return fmt.Errorf("%w: qr code expired", ErrPairingFailed)
		default:
			if evt.Error != nil {
				return fmt.Errorf("%w: %s: %w", ErrPairingFailed, evt.Event, evt.Error)
			}
			return fmt.Errorf("%w: %s", ErrPairingFailed, evt.Event)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: qr channel closed", ErrPairingFailed)
}

// Close disconnects and releases the store. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.wa.Disconnect()
		err = c.container.Close()
	})
	return err
}

// Self implements chat.Messenger.
func (c *Client) Self() (chat.Self, bool) {
	id := c.wa.Store.ID
	if id == nil || !c.wa.IsConnected() {
		return chat.Self{}, false
	}
	self := chat.Self{JID: id.ToNonAD().String()}
	if lid := c.wa.Store.LID; !lid.IsEmpty() {
		self.LID = lid.ToNonAD().String()
	}
	return self, true
}

func (c *Client) handleEvent(evt any) {
	ev, ok := translate(evt, c.Self)
	if !ok {
		return
	}
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// translate maps the whatsmeow events the relay cares about.
func translate(evt any, self func() (chat.Self, bool)) (chat.Event, bool) {
	switch e := evt.(type) {
	case *events.Message:
		msg, ok := toInbound(e)
		if !ok {
			return nil, false
		}
		return chat.EventMessage{Message: msg}, true
	case *events.Connected:
		s, ok := self()
		if !ok {
			return nil, false
		}
		return chat.EventReady{Self: s}, true
	case *events.Disconnected:
		return chat.EventDisconnected{Reason: "connection lost"}, true
	case *events.LoggedOut:
		return chat.EventDisconnected{Reason: "logged out: " + e.Reason.String(), Fatal: true}, true
	case *events.StreamReplaced:
		return chat.EventDisconnected{Reason: "session replaced by another client", Fatal: true}, true
	case *events.ClientOutdated:
		return chat.EventDisconnected{Reason: "client outdated", Fatal: true}, true
	case *events.ConnectFailure:
		return chat.EventDisconnected{Reason: fmt.Sprintf("connect failure: %s %s", e.Reason, e.Message), Fatal: e.Reason.IsLoggedOut()}, true
	}
	return nil, false
}
