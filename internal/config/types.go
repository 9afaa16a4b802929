package config

// Config is the full bot configuration. Files may be JSON or YAML; both are
// decoded strictly (unknown keys are rejected) so typos surface at startup
// instead of silently doing nothing.
type Config struct {
	Telegram TelegramConfig  `json:"telegram"`
	Logging  LoggingConfig   `json:"logging"`
	Storage  *StorageConfig  `json:"storage,omitempty"`
	Reminder ReminderConfig  `json:"reminder"`
	Notifier *NotifierConfig `json:"notifier,omitempty"`
	Health   *HealthConfig   `json:"health,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./pillbot_state.json" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// ReminderConfig controls the reminder sweep.
//
// Enabled is a pointer so an omitted field defaults to true.
// Spec is a standard 5-field cron expression; the default fires at every
// wall-clock hour boundary.
type ReminderConfig struct {
	Enabled *bool  `json:"enabled,omitempty"`
	Spec    string `json:"spec,omitempty"`
}

// NotifierConfig controls the async outbound pipeline. If the whole section
// is omitted the notifier runs with defaults.
type NotifierConfig struct {
	Workers    int `json:"workers,omitempty"`
	QueueSize  int `json:"queue_size,omitempty"`
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// HealthConfig controls the HTTP liveness endpoint.
type HealthConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default ":3000"
}
