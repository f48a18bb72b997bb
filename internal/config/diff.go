package config

import (
	"reflect"
	"sort"
	"strings"

	"nexusevent/pkg/logx"
)

// SummarizeConfigChange returns the changed sections and safe log fields.
// Secrets (webhook URLs, tokens) are never included.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 12)

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.alert_enabled", newCfg.Logging.Alert.Enabled),
		)
	}

	if !reflect.DeepEqual(oldCfg.Delivery, newCfg.Delivery) {
		changed = append(changed, "delivery")
		p, _ := newCfg.RetryPolicy()
		attrs = append(attrs,
			logx.Int("delivery.max_retries", p.MaxRetries),
			logx.Duration("delivery.initial_backoff", p.InitialBackoff),
			logx.Duration("delivery.max_backoff", p.MaxBackoff),
		)
	}

	added, removed, modified := diffSenders(oldCfg.Senders, newCfg.Senders)
	if len(added)+len(removed)+len(modified) > 0 {
		changed = append(changed, "senders")
		attrs = append(attrs,
			logx.Strings("senders.added", added),
			logx.Strings("senders.removed", removed),
			logx.Strings("senders.modified", modified),
		)
	}

	if !reflect.DeepEqual(oldCfg.Schedules, newCfg.Schedules) {
		changed = append(changed, "schedules")
		attrs = append(attrs, logx.Int("schedules.count", len(newCfg.Schedules)))
	}

	if !reflect.DeepEqual(oldCfg.Audit, newCfg.Audit) {
		changed = append(changed, "audit")
		driver := ""
		if newCfg.Audit != nil {
			driver = strings.TrimSpace(newCfg.Audit.Driver)
		}
		attrs = append(attrs, logx.String("audit.driver", driver))
	}

	if !reflect.DeepEqual(oldCfg.Daemon, newCfg.Daemon) {
		changed = append(changed, "daemon")
	}

	return changed, attrs
}

func diffSenders(oldS, newS []SenderConfig) (added, removed, modified []string) {
	index := func(in []SenderConfig) map[string]SenderConfig {
		m := make(map[string]SenderConfig, len(in))
		for _, s := range in {
			m[strings.TrimSpace(s.Name)] = s
		}
		return m
	}
	om, nm := index(oldS), index(newS)
	for name, s := range nm {
		prev, ok := om[name]
		switch {
		case !ok:
			added = append(added, name)
		case prev != s:
			modified = append(modified, name)
		}
	}
	for name := range om {
		if _, ok := nm[name]; !ok {
			removed = append(removed, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(modified)
	return added, removed, modified
}
