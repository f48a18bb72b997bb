package main

import (
	"errors"
	"os"
	"strings"
	"sync"

	"nexusevent/internal/app"
	"nexusevent/internal/config"
	"nexusevent/pkg/logx"
	"nexusevent/pkg/nexusevent"
)

const (
	webhookEnv  = "DISCORD_WEBHOOK_URL"
	webhookName = "discord"
)

var errNoSenders = errors.New("no senders configured: pass --config, --webhook or set " + webhookEnv)

type commandContext struct {
	configFlag   *string
	webhookFlag  *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	registryOnce sync.Once
	registry     *nexusevent.Registry
	registryErr  error
}

func newCommandContext(configFlag, webhookFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		webhookFlag:  webhookFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) webhookURL() string {
	if c.webhookFlag != nil {
		if v := strings.TrimSpace(*c.webhookFlag); v != "" {
			return v
		}
	}
	return strings.TrimSpace(os.Getenv(webhookEnv))
}

func (c *commandContext) logger() logx.Logger {
	level := "warn"
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		level = *c.logLevelFlag
	}
	return logx.NewConsole(level)
}

// ensureConfig loads the config file; it returns (nil, nil) when none was given.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := c.configPath()
		if path == "" {
			return
		}
		cfg, err := config.NewManager(path).Load()
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureRegistry builds senders from the config file plus the quick-mode
// webhook, which is registered as "discord".
func (c *commandContext) ensureRegistry() (*nexusevent.Registry, error) {
	c.registryOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.registryErr = err
			return
		}
		if cfg == nil {
			cfg = &config.Config{}
		}
		reg, err := app.BuildRegistry(cfg, c.logger(), nil)
		if err != nil {
			c.registryErr = err
			return
		}
		if url := c.webhookURL(); url != "" {
			if err := reg.AddDiscordSender(webhookName, url); err != nil {
				c.registryErr = err
				return
			}
		}
		if reg.Len() == 0 {
			c.registryErr = errNoSenders
			return
		}
		c.registry = reg
	})
	return c.registry, c.registryErr
}
