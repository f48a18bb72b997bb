package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nexusevent/pkg/sender"
)

const sampleJSON = `{
  "logging": {"level": "debug", "console": true},
  "delivery": {"max_retries": 5, "initial_backoff": "500ms"},
  "senders": [
    {"name": "alerts", "platform": "discord", "webhook_url": "https://discord.com/api/webhooks/1/abc"}
  ]
}`

const sampleYAML = `logging:
  level: debug
  console: true
delivery:
  max_retries: 5
  initial_backoff: 500ms
senders:
  - name: alerts
    platform: discord
    webhook_url: https://discord.com/api/webhooks/1/abc
`

const sampleTOML = `[logging]
level = "debug"
console = true

[delivery]
max_retries = 5
initial_backoff = "500ms"

[[senders]]
name = "alerts"
platform = "discord"
webhook_url = "https://discord.com/api/webhooks/1/abc"
`

func TestDecodeFormats(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		path string
		data string
	}{
		{name: "json", path: "c.json", data: sampleJSON},
		{name: "yaml", path: "c.yaml", data: sampleYAML},
		{name: "yml", path: "c.yml", data: sampleYAML},
		{name: "toml", path: "c.toml", data: sampleTOML},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := Decode(tt.path, []byte(tt.data))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if cfg.Logging.Level != "debug" || !cfg.Logging.Console {
				t.Fatalf("logging = %+v", cfg.Logging)
			}
			if cfg.Delivery.MaxRetries == nil || *cfg.Delivery.MaxRetries != 5 {
				t.Fatalf("max_retries = %v", cfg.Delivery.MaxRetries)
			}
			if len(cfg.Senders) != 1 || cfg.Senders[0].Name != "alerts" || cfg.Senders[0].Platform != "discord" {
				t.Fatalf("senders = %+v", cfg.Senders)
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}
		})
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path string
		data string
	}{
		{path: "c.json", data: `{"senders": [], "sendres": []}`},
		{path: "c.yaml", data: "logging:\n  levle: info\n"},
		{path: "c.toml", data: "[daemon]\nlock = \"x\"\n"},
	}
	for _, tt := range tests {
		if _, err := Decode(tt.path, []byte(tt.data)); err == nil {
			t.Fatalf("Decode(%s) accepted unknown key", tt.path)
		}
	}
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	t.Parallel()
	if _, err := Decode("c.json", []byte(`{} {}`)); err == nil {
		t.Fatal("expected trailing data error")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	discord := SenderConfig{Name: "d", Platform: "discord", WebhookURL: "https://discord.com/api/webhooks/1/a"}
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty is valid", cfg: Config{}},
		{name: "ok", cfg: Config{Senders: []SenderConfig{discord}}},
		{name: "missing name", cfg: Config{Senders: []SenderConfig{{Platform: "discord", WebhookURL: "x"}}}, wantErr: "name: required"},
		{name: "duplicate", cfg: Config{Senders: []SenderConfig{discord, discord}}, wantErr: "duplicate sender"},
		{name: "unknown platform", cfg: Config{Senders: []SenderConfig{{Name: "x", Platform: "irc"}}}, wantErr: "platform"},
		{name: "unsupported platform", cfg: Config{Senders: []SenderConfig{{Name: "x", Platform: "slack"}}}, wantErr: "not supported"},
		{name: "discord without url", cfg: Config{Senders: []SenderConfig{{Name: "x", Platform: "discord"}}}, wantErr: "webhook_url"},
		{name: "telegram without chat", cfg: Config{Senders: []SenderConfig{{Name: "x", Platform: "telegram", Token: "1:a"}}}, wantErr: "chat_id"},
		{
			name:    "bad schedule",
			cfg:     Config{Schedules: []ScheduleConfig{{Name: "s", Spec: "whenever", Message: MessageConfig{Title: "t"}}}},
			wantErr: "schedules[0].spec",
		},
		{
			name:    "schedule without title",
			cfg:     Config{Schedules: []ScheduleConfig{{Name: "s", Spec: "5m"}}},
			wantErr: "message.title",
		},
		{
			name:    "alert sender unknown",
			cfg:     Config{Logging: LoggingConfig{Alert: LoggingAlert{Enabled: true, Sender: "nope"}}},
			wantErr: "logging.alert.sender",
		},
		{name: "bad duration", cfg: Config{Delivery: DeliveryConfig{MaxBackoff: "soon"}}, wantErr: "delivery.max_backoff"},
		{name: "negative duration", cfg: Config{Daemon: DaemonConfig{ShutdownTimeout: "-1s"}}, wantErr: "daemon.shutdown_timeout"},
		{name: "bad retention", cfg: Config{Audit: &AuditConfig{Driver: "file", Path: "a", Retention: "forever"}}, wantErr: "audit.retention"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestRetryPolicyDefaults(t *testing.T) {
	t.Parallel()
	p, err := (&Config{}).RetryPolicy()
	if err != nil {
		t.Fatalf("RetryPolicy: %v", err)
	}
	if p != sender.DefaultRetryPolicy() {
		t.Fatalf("policy = %+v, want defaults", p)
	}

	neg := -1
	p, err = (&Config{Delivery: DeliveryConfig{MaxRetries: &neg, MaxBackoff: "5s"}}).RetryPolicy()
	if err != nil {
		t.Fatalf("RetryPolicy: %v", err)
	}
	if p.MaxRetries != 0 || p.MaxBackoff != 5*time.Second || p.InitialBackoff != time.Second {
		t.Fatalf("policy = %+v", p)
	}

	if got := (&Config{}).DeliveryTimeout(); got != 15*time.Second {
		t.Fatalf("DeliveryTimeout = %v", got)
	}
}

func TestSenderConfigExpanded(t *testing.T) {
	t.Setenv("NE_TEST_HOOK", "https://discord.com/api/webhooks/9/zz")
	s := SenderConfig{Name: " hook ", WebhookURL: "${NE_TEST_HOOK}"}.Expanded()
	if s.Name != "hook" || s.WebhookURL != "https://discord.com/api/webhooks/9/zz" {
		t.Fatalf("Expanded = %+v", s)
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{Senders: []SenderConfig{
		{Name: "a", Platform: "discord", WebhookURL: "secret-1"},
		{Name: "b", Platform: "discord", WebhookURL: "secret-2"},
	}}
	newCfg := &Config{
		Logging: LoggingConfig{Level: "debug"},
		Senders: []SenderConfig{
			{Name: "a", Platform: "discord", WebhookURL: "secret-3"},
			{Name: "c", Platform: "discord", WebhookURL: "secret-4"},
		},
	}
	sections, attrs := SummarizeConfigChange(oldCfg, newCfg)
	if strings.Join(sections, ",") != "logging,senders" {
		t.Fatalf("sections = %v", sections)
	}
	if len(attrs) == 0 {
		t.Fatal("expected attrs")
	}

	added, removed, modified := diffSenders(oldCfg.Senders, newCfg.Senders)
	if strings.Join(added, ",") != "c" || strings.Join(removed, ",") != "b" || strings.Join(modified, ",") != "a" {
		t.Fatalf("diff = %v %v %v", added, removed, modified)
	}

	if sections, _ := SummarizeConfigChange(newCfg, newCfg); len(sections) != 0 {
		t.Fatalf("identical configs reported %v", sections)
	}
}

func TestManagerReload(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "nexusevent.json")
	write := func(body string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write(sampleJSON)

	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sub := m.Subscribe(1)
	defer m.Unsubscribe(sub)
	ctx := context.Background()

	published, err := m.Reload(ctx)
	if err != nil || published {
		t.Fatalf("Reload unchanged = %v, %v; want false, nil", published, err)
	}

	write(strings.Replace(sampleJSON, `"debug"`, `"warn"`, 1))
	published, err = m.Reload(ctx)
	if err != nil || !published {
		t.Fatalf("Reload changed = %v, %v; want true, nil", published, err)
	}
	select {
	case cfg := <-sub:
		if cfg.Logging.Level != "warn" {
			t.Fatalf("published level = %q", cfg.Logging.Level)
		}
	default:
		t.Fatal("no config published")
	}

	write(`{"senders": [{"name": "x", "platform": "discord"}]}`)
	if _, err := m.Reload(ctx); err == nil {
		t.Fatal("expected validation error")
	}
	if m.Get().Logging.Level != "warn" {
		t.Fatal("rejected config was committed")
	}

	m.SetValidator(func(context.Context, *Config) error { return os.ErrPermission })
	write(sampleJSON)
	if _, err := m.Reload(ctx); err == nil {
		t.Fatal("expected validator error")
	}
}

func TestManagerWatch(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "nexusevent.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sub := m.Subscribe(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = m.Watch(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(strings.Replace(sampleYAML, "level: debug", "level: error", 1)), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case cfg := <-sub:
		if cfg.Logging.Level != "error" {
			t.Fatalf("level = %q", cfg.Logging.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not publish the new config")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("x", ""); d != 0 || err != nil {
		t.Fatalf("empty = %v, %v", d, err)
	}
	if d, err := ParseDurationOrDefault("x", "", time.Minute); d != time.Minute || err != nil {
		t.Fatalf("default = %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "1 hour"); err == nil || !strings.Contains(err.Error(), "x:") {
		t.Fatalf("err = %v", err)
	}
}
