package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/rs/zerolog"

	"whatsapp-relay/internal/chat"
	"whatsapp-relay/internal/stock"
)

// Reminder message framing.
const (
	ReminderHeader = "*🔔 PENGINGAT STOK KRITIS 🔔*\n\n"
	ReminderFooter = "\n\n_Pesan ini dikirim otomatis oleh sistem inventaris._"

	fetchFailedFormat = "Gagal mengambil data stok kritis: %s"
	tickTimeout       = time.Minute
)

// FormatReminder frames content with the fixed header and footer.
func FormatReminder(content string) string {
	return ReminderHeader + content + ReminderFooter
}

// StockSource returns the current urgent-stock summary.
type StockSource interface {
	FetchUrgent(ctx context.Context) (stock.Payload, error)
}

// ScheduleConfig sets when and where recurring reminders go.
type ScheduleConfig struct {
	Destination string
	Cron        string
	Location    *time.Location
}

// Scheduler posts the urgent-stock summary to one chat on a cron cadence.
// Each tick stands alone: a failed tick is logged and the next one runs on
// schedule.
type Scheduler struct {
	messenger chat.Messenger
	source    StockSource
	cfg       ScheduleConfig
	log       zerolog.Logger
	now       func() time.Time
}

// NewScheduler validates cfg and returns a scheduler.
func NewScheduler(m chat.Messenger, src StockSource, cfg ScheduleConfig, log zerolog.Logger) (*Scheduler, error) {
	if cfg.Destination == "" {
		return nil, errors.New("reminder destination is required")
	}
	if !gronx.New().IsValid(cfg.Cron) {
		return nil, fmt.Errorf("invalid reminder cron expression %q", cfg.Cron)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		messenger: m,
		source:    src,
		cfg:       cfg,
		log:       log.With().Str("component", "scheduler").Str("destination", cfg.Destination).Logger(),
		now:       time.Now,
	}, nil
}

// Next returns the first tick strictly after t, in the configured zone.
func (s *Scheduler) Next(t time.Time) (time.Time, error) {
	return gronx.NextTickAfter(s.cfg.Cron, t.In(s.cfg.Location), false)
}

// Run fires Tick on schedule until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().Str("cron", s.cfg.Cron).Str("timezone", s.cfg.Location.String()).Msg("recurring reminder armed")
	for {
		next, err := s.Next(s.now())
		if err != nil {
			return fmt.Errorf("compute next reminder tick: %w", err)
		}
		s.log.Debug().Time("next", next).Msg("next reminder scheduled")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if err := s.Tick(ctx); err != nil {
			if errors.Is(err, ErrNotConnected) {
				s.log.Info().Msg("session not connected, skipping reminder")
				continue
			}
			s.log.Error().Err(err).Str("failure", ClassifySend(err)).Msg("reminder tick failed")
		}
	}
}

// Tick fetches the summary and sends it once to the resolved destination.
func (s *Scheduler) Tick(ctx context.Context) error {
	if _, ok := s.messenger.Self(); !ok {
		return ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, tickTimeout)
	defer cancel()

	payload, err := s.source.FetchUrgent(ctx)
	if err != nil {
		return fmt.Errorf("fetch urgent stocks: %w", err)
	}

	content := payload.Answer
	if !payload.OK() {
		content = fmt.Sprintf(fetchFailedFormat, payload.Message)
		s.log.Error().Str("status", payload.Status).Str("message", payload.Message).Msg("stock service reported failure")
	}

	chatID, err := s.messenger.Resolve(ctx, s.cfg.Destination)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDestinationUnresolved, err)
	}
	ack, err := s.messenger.SendText(ctx, chatID, FormatReminder(content))
	if err != nil {
		return fmt.Errorf("send reminder to %s: %w", chatID, err)
	}
	s.log.Info().Str("message_id", ack.ID).Msg("reminder sent")
	return nil
}
