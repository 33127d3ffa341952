// Package config loads relay settings from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"whatsapp-relay/internal/intent"
)

// Defaults.
const (
	DefaultLanguageCode = "id"
	DefaultCron         = "0 8 * * *"
	DefaultTimezone     = "Asia/Jakarta"
	DefaultStoreDSN     = "file:session.db?_foreign_keys=on"
	DefaultSendInterval = time.Second
	DefaultReplyTimeout = 2 * time.Minute
	DefaultHTTPTimeout  = 30 * time.Second
)

// Config aggregates all settings.
type Config struct {
	Intent   intent.Config
	Stock    StockConfig
	Reminder ReminderConfig
	WhatsApp WhatsAppConfig
	Log      LogConfig
	// ReplyTimeout bounds the handling of one inbound message.
	ReplyTimeout time.Duration
}

// StockConfig locates the inventory service.
type StockConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ReminderConfig controls the recurring urgent-stock reminder.
type ReminderConfig struct {
	GroupJID string
	Cron     string
	Location *time.Location
}

// WhatsAppConfig controls the chat session.
type WhatsAppConfig struct {
	StoreDSN     string
	SendInterval time.Duration
}

// LogConfig controls log output.
type LogConfig struct {
	Level  zerolog.Level
	Format string // "console" or "json"
}

// RecurringEnabled reports whether the recurring reminder has both a data
// source and a destination.
func (c *Config) RecurringEnabled() bool {
	return c.Stock.BaseURL != "" && c.Reminder.GroupJID != ""
}

// LoadDotEnv loads variables from the given files (".env" when none) without
// overriding the process environment. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Intent: intent.Config{
			ProjectID:       env("GOOGLE_CLOUD_PROJECT_ID", ""),
			CredentialsFile: env("GOOGLE_APPLICATION_CREDENTIALS", ""),
			LanguageCode:    env("DIALOGFLOW_LANGUAGE_CODE", DefaultLanguageCode),
		},
		Stock: StockConfig{
			BaseURL: strings.TrimRight(env("LARAVEL_API_BASE_URL", ""), "/"),
		},
		Reminder: ReminderConfig{
			GroupJID: env("WHATSAPP_REMINDER_GROUP_JID", ""),
			Cron:     env("REMINDER_CRON", DefaultCron),
		},
		WhatsApp: WhatsAppConfig{
			StoreDSN: env("WHATSAPP_SESSION_DB", DefaultStoreDSN),
		},
		Log: LogConfig{
			Format: strings.ToLower(env("LOG_FORMAT", "console")),
		},
	}

	var err error
	if cfg.Stock.Timeout, err = duration("LARAVEL_API_TIMEOUT", DefaultHTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.WhatsApp.SendInterval, err = duration("WHATSAPP_SEND_INTERVAL", DefaultSendInterval); err != nil {
		return nil, err
	}
	if cfg.ReplyTimeout, err = duration("REPLY_TIMEOUT", DefaultReplyTimeout); err != nil {
		return nil, err
	}

	if !gronx.New().IsValid(cfg.Reminder.Cron) {
		return nil, fmt.Errorf("invalid REMINDER_CRON %q", cfg.Reminder.Cron)
	}
	tz := env("REMINDER_TIMEZONE", DefaultTimezone)
	if cfg.Reminder.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid REMINDER_TIMEZONE %q: %w", tz, err)
	}

	level := env("LOG_LEVEL", "info")
	if cfg.Log.Level, err = zerolog.ParseLevel(strings.ToLower(level)); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	if cfg.Log.Format != "console" && cfg.Log.Format != "json" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want console or json", cfg.Log.Format)
	}

	return cfg, nil
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := env(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q: want a duration such as 30s", key, v)
	}
	return d, nil
}
