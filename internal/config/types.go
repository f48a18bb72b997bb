package config

// Config is the on-disk configuration for the nexusevent CLI and daemon.
//
// Files may be JSON, YAML or TOML; all three are decoded strictly
// (unknown keys are rejected).
type Config struct {
	Logging   LoggingConfig    `json:"logging"`
	Delivery  DeliveryConfig   `json:"delivery"`
	Senders   []SenderConfig   `json:"senders"`
	Schedules []ScheduleConfig `json:"schedules,omitempty"`
	Audit     *AuditConfig     `json:"audit,omitempty"`
	Daemon    DaemonConfig     `json:"daemon"`
}

type LoggingConfig struct {
	Level   string       `json:"level"`
	Console bool         `json:"console"`
	File    LoggingFile  `json:"file"`
	Alert   LoggingAlert `json:"alert"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingAlert forwards log records at or above MinLevel to a configured sender.
type LoggingAlert struct {
	Enabled    bool   `json:"enabled"`
	Sender     string `json:"sender"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// DeliveryConfig tunes the retry loop shared by all senders.
//
// Durations are Go duration strings (e.g. "500ms", "1s", "30s").
//
// Defaults (when fields are omitted/zero):
//   - max_retries: 3 (use a negative value to disable retries)
//   - initial_backoff: "1s"
//   - max_backoff: "30s"
//   - timeout: "15s"
type DeliveryConfig struct {
	MaxRetries     *int   `json:"max_retries,omitempty"`
	InitialBackoff string `json:"initial_backoff,omitempty"`
	MaxBackoff     string `json:"max_backoff,omitempty"`
	Timeout        string `json:"timeout,omitempty"`
}

// SenderConfig declares one named sender.
//
// Secret fields accept ${ENV} references, expanded at build time.
type SenderConfig struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`

	// discord
	WebhookURL string `json:"webhook_url,omitempty"`

	// telegram
	Token    string `json:"token,omitempty"`
	ChatID   int64  `json:"chat_id,omitempty"`
	ThreadID int    `json:"thread_id,omitempty"`
	APIURL   string `json:"api_url,omitempty"`
}

// ScheduleConfig broadcasts a fixed message on a schedule.
//
// Spec is either a cron expression ("0 9 * * 1-5") or a Go duration
// interval ("15m"). Timezone applies to cron specs only.
type ScheduleConfig struct {
	Name      string        `json:"name"`
	Spec      string        `json:"spec"`
	Timezone  string        `json:"timezone,omitempty"`
	Platforms []string      `json:"platforms,omitempty"`
	FailFast  bool          `json:"fail_fast,omitempty"`
	Message   MessageConfig `json:"message"`
}

type MessageConfig struct {
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
	Author  string `json:"author,omitempty"`
	Color   int    `json:"color,omitempty"`
}

// AuditConfig controls the delivery audit log.
//
// Example:
//
//	"audit": { "driver": "sqlite", "path": "./nexusevent.db" }
type AuditConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
	// Retention drops records older than this (Go duration, e.g. "720h"); empty keeps everything.
	Retention string `json:"retention,omitempty"`
}

type DaemonConfig struct {
	// LockFile defaults to "<config path>.lock".
	LockFile string `json:"lock_file,omitempty"`
	// ShutdownTimeout is a Go duration string; default "10s".
	ShutdownTimeout string `json:"shutdown_timeout,omitempty"`
}
