package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"pillbot/internal/config"
	"pillbot/internal/health"
	"pillbot/internal/notify"
	"pillbot/internal/remind"
	"pillbot/internal/storage"
	logx "pillbot/pkg/logx"
)

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return storage.Config{}, false, err
	}
	return storage.Config{
		Driver:      driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, true, nil
}

func mapNotifierConfig(cfg *config.Config) notify.Config {
	if cfg.Notifier == nil {
		return notify.Config{}
	}
	return notify.Config{
		Workers:    cfg.Notifier.Workers,
		QueueSize:  cfg.Notifier.QueueSize,
		RatePerSec: cfg.Notifier.RatePerSec,
	}
}

func mapReminderConfig(cfg *config.Config) (remind.Config, error) {
	enabled := true
	if cfg.Reminder.Enabled != nil {
		enabled = *cfg.Reminder.Enabled
	}
	spec := strings.TrimSpace(cfg.Reminder.Spec)
	if spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return remind.Config{}, fmt.Errorf("reminder.spec: invalid cron expression %q: %w", spec, err)
		}
	}
	return remind.Config{Enabled: enabled, Spec: spec}, nil
}

func mapHealthConfig(cfg *config.Config) health.Config {
	if cfg.Health == nil {
		return health.Config{}
	}
	return health.Config{Enabled: cfg.Health.Enabled, Addr: cfg.Health.Addr}
}

// validateConfig is the hot-reload gate: a config that fails here is rejected
// and the previous one stays in effect.
func validateConfig(ctx context.Context, cfg *config.Config) error {
	_ = ctx
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if _, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		return err
	}
	if _, _, err := mapStorageConfig(cfg); err != nil {
		return err
	}
	if _, err := mapReminderConfig(cfg); err != nil {
		return err
	}
	if cfg.Notifier != nil {
		if cfg.Notifier.Workers < 0 {
			return fmt.Errorf("notifier.workers must be >= 0")
		}
		if cfg.Notifier.QueueSize < 0 {
			return fmt.Errorf("notifier.queue_size must be >= 0")
		}
		if cfg.Notifier.RatePerSec < 0 {
			return fmt.Errorf("notifier.rate_per_sec must be >= 0")
		}
	}
	return nil
}
