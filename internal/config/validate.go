package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"nexusevent/internal/schedule"
	"nexusevent/pkg/sender"
)

// Validate checks structure only; it never contacts a platform.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	var errs []error

	seen := map[string]bool{}
	for i, s := range c.Senders {
		path := fmt.Sprintf("senders[%d]", i)
		name := strings.TrimSpace(s.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("%s.name: required", path))
		} else if seen[name] {
			errs = append(errs, fmt.Errorf("%s.name: duplicate sender %q", path, name))
		}
		seen[name] = true

		p, err := sender.ParsePlatform(s.Platform)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s.platform: %w", path, err))
			continue
		}
		switch p {
		case sender.PlatformDiscord:
			if strings.TrimSpace(s.WebhookURL) == "" {
				errs = append(errs, fmt.Errorf("%s.webhook_url: required for discord", path))
			}
		case sender.PlatformTelegram:
			if strings.TrimSpace(s.Token) == "" || s.ChatID == 0 {
				errs = append(errs, fmt.Errorf("%s: token and chat_id are required for telegram", path))
			}
		default:
			errs = append(errs, fmt.Errorf("%s.platform: %s senders are not supported", path, p))
		}
	}

	for i, sc := range c.Schedules {
		path := fmt.Sprintf("schedules[%d]", i)
		if strings.TrimSpace(sc.Name) == "" {
			errs = append(errs, fmt.Errorf("%s.name: required", path))
		}
		if strings.TrimSpace(sc.Message.Title) == "" {
			errs = append(errs, fmt.Errorf("%s.message.title: required", path))
		}
		if _, err := schedule.Parse(sc.Spec, sc.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("%s.spec: %w", path, err))
		}
		for _, ps := range sc.Platforms {
			if _, err := sender.ParsePlatform(ps); err != nil {
				errs = append(errs, fmt.Errorf("%s.platforms: %w", path, err))
			}
		}
	}

	if c.Logging.Alert.Enabled && !seen[strings.TrimSpace(c.Logging.Alert.Sender)] {
		errs = append(errs, fmt.Errorf("logging.alert.sender: unknown sender %q", c.Logging.Alert.Sender))
	}

	if _, err := c.RetryPolicy(); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDurationField("delivery.timeout", c.Delivery.Timeout); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDurationField("daemon.shutdown_timeout", c.Daemon.ShutdownTimeout); err != nil {
		errs = append(errs, err)
	}
	if c.Audit != nil {
		if _, err := ParseDurationField("audit.busy_timeout", c.Audit.BusyTimeout); err != nil {
			errs = append(errs, err)
		}
		if _, err := ParseDurationField("audit.retention", c.Audit.Retention); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RetryPolicy resolves delivery settings with defaults applied.
func (c *Config) RetryPolicy() (sender.RetryPolicy, error) {
	p := sender.DefaultRetryPolicy()
	if c.Delivery.MaxRetries != nil {
		p.MaxRetries = max(0, *c.Delivery.MaxRetries)
	}
	var err error
	if p.InitialBackoff, err = ParseDurationOrDefault("delivery.initial_backoff", c.Delivery.InitialBackoff, sender.DefaultInitialBackoff); err != nil {
		return p, err
	}
	if p.MaxBackoff, err = ParseDurationOrDefault("delivery.max_backoff", c.Delivery.MaxBackoff, sender.DefaultMaxBackoff); err != nil {
		return p, err
	}
	return p, nil
}

// DeliveryTimeout is the per-request HTTP timeout.
func (c *Config) DeliveryTimeout() time.Duration {
	d, err := ParseDurationOrDefault("delivery.timeout", c.Delivery.Timeout, 15*time.Second)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// Expanded returns a copy with ${ENV} references in sender secrets resolved.
func (s SenderConfig) Expanded() SenderConfig {
	s.Name = strings.TrimSpace(s.Name)
	s.WebhookURL = strings.TrimSpace(os.ExpandEnv(s.WebhookURL))
	s.Token = strings.TrimSpace(os.ExpandEnv(s.Token))
	s.APIURL = strings.TrimSpace(os.ExpandEnv(s.APIURL))
	return s
}

// Message converts a schedule's message block.
func (m MessageConfig) Message() sender.Message {
	return sender.Message{Title: m.Title, Content: m.Content, URL: m.URL, Author: m.Author, Color: m.Color}
}
