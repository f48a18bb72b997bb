package sender

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Platform identifies the messaging service a sender delivers to.
type Platform string

const (
	PlatformDiscord  Platform = "discord"
	PlatformSlack    Platform = "slack"
	PlatformTelegram Platform = "telegram"
	PlatformWebhook  Platform = "webhook"
	PlatformTeams    Platform = "teams"
)

// Platforms lists every known platform.
var Platforms = []Platform{PlatformDiscord, PlatformSlack, PlatformTelegram, PlatformWebhook, PlatformTeams}

func (p Platform) String() string { return string(p) }

// ParsePlatform maps a case-insensitive name to a Platform.
func ParsePlatform(s string) (Platform, error) {
	v := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range Platforms {
		if p == v {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// Message is a single notification. Title is required; everything else is optional.
type Message struct {
	Title   string
	Content string
	URL     string
	Author  string
	// Color is a 24-bit RGB value; 0 means the platform default.
	Color     int
	Metadata  map[string]any
	Timestamp time.Time
}

// Validate reports ErrInvalidMessage when the title is empty or whitespace.
func (m Message) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidMessage)
	}
	return nil
}

// Sender delivers messages to one destination on one platform.
type Sender interface {
	// Platform is fixed at construction.
	Platform() Platform
	// Send delivers msg. It may perform several network calls (retries).
	Send(ctx context.Context, msg Message) error
	// ValidateConfig reports whether the sender's configuration looks usable.
	// It performs no I/O and never returns an error.
	ValidateConfig() bool
}

// SafeValidate calls s.ValidateConfig, reporting false if it panics.
func SafeValidate(s Sender) (ok bool) {
	if s == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return s.ValidateConfig()
}

// Version is reported in outgoing User-Agent headers.
const Version = "0.1.1"
