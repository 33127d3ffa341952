package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"whatsapp-relay/internal/app"
	"whatsapp-relay/internal/config"
	"whatsapp-relay/internal/intent"
	"whatsapp-relay/internal/notify"
	"whatsapp-relay/internal/router"
	"whatsapp-relay/internal/stock"
	"whatsapp-relay/internal/whatsapp"
)

// Version is set at build time via -ldflags "-X main.Version=v1.0.0".
var Version = "dev"

//////////////////////////////////////////////////////////////
// COMMAND
//////////////////////////////////////////////////////////////

func newRootCmd() *cobra.Command {
	var envFiles []string

	cmd := &cobra.Command{
		Use:   "whatsapp-relay [reminder <targetId> <message>]",
		Short: "Relay WhatsApp chats to a Dialogflow agent",
		Long: `whatsapp-relay answers WhatsApp messages with replies from a Dialogflow agent
and posts recurring urgent-stock reminders to a group.

Run with no arguments for interactive mode. Run
  whatsapp-relay reminder <targetId> <message>
to send one message and exit.`,
		Args:          cobra.MaximumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := app.ParseRunMode(args)
			if err != nil {
				return err
			}
			if err := config.LoadDotEnv(envFiles...); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			log := newLogger(cfg.Log)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = runRelay(ctx, mode, cfg, log)
			if err != nil {
				log.Error().Err(err).Msg("relay stopped")
			}
			return err
		},
	}
	cmd.Flags().StringSliceVar(&envFiles, "env-file", nil, "dotenv file(s) to load (default .env)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "whatsapp-relay %s\n", Version)
		},
	})
	return cmd
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	var w io.Writer = os.Stderr
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	}
	return zerolog.New(w).Level(cfg.Level).With().Timestamp().Logger()
}

//////////////////////////////////////////////////////////////
// WIRING
//////////////////////////////////////////////////////////////

func runRelay(ctx context.Context, mode app.RunMode, cfg *config.Config, log zerolog.Logger) error {
	log.Info().Str("mode", mode.Mode.String()).Str("version", Version).Msg("starting whatsapp relay")

	wa, err := whatsapp.Open(ctx, whatsapp.Config{
		StoreDSN:     cfg.WhatsApp.StoreDSN,
		SendInterval: cfg.WhatsApp.SendInterval,
	}, log)
	if err != nil {
		return err
	}
	defer wa.Close()

	var detector router.Detector
	var scheduler app.Scheduler
	if mode.Mode == app.ModeInteractive {
		df, err := intent.New(ctx, cfg.Intent, log)
		if err != nil {
			log.Error().Err(err).Msg("intent backend disabled, every message will get the configuration error reply")
		} else {
			defer df.Close()
			detector = df
		}

		if cfg.RecurringEnabled() {
			if _, err := whatsapp.ParseDestination(cfg.Reminder.GroupJID); err != nil {
				return fmt.Errorf("WHATSAPP_REMINDER_GROUP_JID: %w", err)
			}
			s, err := notify.NewScheduler(wa, stock.NewClient(cfg.Stock.BaseURL, cfg.Stock.Timeout, nil), notify.ScheduleConfig{
				Destination: cfg.Reminder.GroupJID,
				Cron:        cfg.Reminder.Cron,
				Location:    cfg.Reminder.Location,
			}, log)
			if err != nil {
				return fmt.Errorf("recurring reminder: %w", err)
			}
			scheduler = s
		} else {
			log.Warn().Msg("recurring reminder disabled: LARAVEL_API_BASE_URL or WHATSAPP_REMINDER_GROUP_JID not set")
		}
	}

	dispatcher := app.NewDispatcher(
		mode,
		router.New(wa, detector, cfg.ReplyTimeout, log),
		notify.NewOneShot(wa, notify.DefaultSettleDelay, notify.DefaultFlushDelay, log),
		scheduler,
		log,
	)

	if err := wa.Connect(ctx); err != nil {
		return err
	}
	return dispatcher.Run(ctx, wa.Events())
}

//////////////////////////////////////////////////////////////
// MAIN
//////////////////////////////////////////////////////////////

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(app.ExitCode(err))
}
