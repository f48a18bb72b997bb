package app

import (
	"fmt"
	"net/http"
	"strings"

	"nexusevent/internal/config"
	"nexusevent/internal/storage"
	"nexusevent/pkg/eventbus"
	"nexusevent/pkg/logx"
	"nexusevent/pkg/nexusevent"
	"nexusevent/pkg/sender"
	"nexusevent/pkg/sender/discord"
	"nexusevent/pkg/sender/telegram"
)

// BuildRegistry creates a registry holding every sender declared in cfg.
// bus may be nil.
func BuildRegistry(cfg *config.Config, log logx.Logger, bus eventbus.Bus) (*nexusevent.Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	policy, err := cfg.RetryPolicy()
	if err != nil {
		return nil, err
	}

	opts := []nexusevent.Option{
		nexusevent.WithLogger(log),
		nexusevent.WithRetryPolicy(policy),
	}
	if bus != nil {
		opts = append(opts, nexusevent.WithEventBus(bus))
	}
	reg := nexusevent.New(opts...)

	client := &http.Client{Timeout: cfg.DeliveryTimeout()}
	for i, raw := range cfg.Senders {
		sc := raw.Expanded()
		p, err := sender.ParsePlatform(sc.Platform)
		if err != nil {
			return nil, fmt.Errorf("senders[%d]: %w", i, err)
		}
		switch p {
		case sender.PlatformDiscord:
			err = reg.AddDiscordSender(sc.Name, sc.WebhookURL, discord.WithHTTPClient(client))
		case sender.PlatformTelegram:
			err = reg.AddTelegramSender(sc.Name, telegram.Config{
				Token:    sc.Token,
				ChatID:   sc.ChatID,
				ThreadID: sc.ThreadID,
				APIURL:   sc.APIURL,
			}, telegram.WithHTTPClient(client))
		default:
			err = fmt.Errorf("%s senders are not supported", p)
		}
		if err != nil {
			return nil, fmt.Errorf("sender %q: %w", sc.Name, err)
		}
	}
	return reg, nil
}

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Alert: logx.AlertConfig{
			Enabled:    cfg.Logging.Alert.Enabled,
			MinLevel:   cfg.Logging.Alert.MinLevel,
			RatePerSec: cfg.Logging.Alert.RatePerSec,
		},
	}
}

// OpenAudit opens the configured audit store. It returns (nil, nil) when
// auditing is off.
func OpenAudit(cfg *config.Config, log logx.Logger) (storage.Store, error) {
	sc, enabled, err := mapStorageConfig(cfg)
	if err != nil || !enabled {
		return nil, err
	}
	return storage.Open(sc, log)
}

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Audit == nil {
		return storage.Config{}, false, nil
	}
	ac := cfg.Audit
	driver := strings.ToLower(strings.TrimSpace(ac.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(ac.Path)

	switch driver {
	case "file":
		return storage.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("audit.path is required when audit.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("audit.busy_timeout", ac.BusyTimeout, storage.DefaultBusyTimeout)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown audit.driver: %s", ac.Driver)
	}
}
