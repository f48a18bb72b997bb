package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFormatRecord(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fields sorted",
			in:   `{"level":"warn","time":"x","message":"send failed","sender":"ops","attempts":3}`,
			want: "[WARN] send failed\n- attempts=3\n- sender=ops",
		},
		{name: "no fields", in: `{"level":"error","message":"boom"}`, want: "[ERROR] boom"},
		{name: "not json", in: "plain text\n", want: "plain text"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatRecord([]byte(tt.in)); got != tt.want {
				t.Fatalf("FormatRecord = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatRecordTruncates(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("a", 5000)
	got := FormatRecord([]byte(`{"level":"info","message":"` + long + `"}`))
	if len(got) != 1800 || !strings.HasSuffix(got, "...") {
		t.Fatalf("len = %d, suffix %q", len(got), got[len(got)-3:])
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	cases := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"loud":    LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWriterLoggerFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWriter(&buf, "info").With(String("comp", "test"))

	log.Debug("hidden")
	log.Info("delivered", Int("attempts", 2), Err(errors.New("nope")), Strings("tags", []string{"a"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1 (debug filtered): %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["comp"] != "test" || rec["message"] != "delivered" || rec["attempts"] != float64(2) || rec["err"] != "nope" {
		t.Fatalf("record = %v", rec)
	}
	if c, _ := rec["caller"].(string); !strings.HasPrefix(c, "logging_test.go:") {
		t.Fatalf("caller = %v", rec["caller"])
	}
}

func TestZeroLoggerIsSafe(t *testing.T) {
	t.Parallel()
	var log Logger
	if !log.IsZero() {
		t.Fatal("zero Logger should report IsZero")
	}
	log.Error("ignored")
	if Nop().IsZero() {
		t.Fatal("Nop should not report IsZero")
	}
}

func TestServiceForwardsAlerts(t *testing.T) {
	t.Parallel()
	svc, log := New(Config{
		Level: "debug",
		Alert: AlertConfig{Enabled: true, MinLevel: "warn", RatePerSec: 1},
	})
	defer svc.Close()

	got := make(chan string, 4)
	svc.SetAlertSink(AlertFunc(func(_ context.Context, level, text string) error {
		got <- level + "|" + text
		return nil
	}))

	log.Info("below threshold")
	log.Warn("disk almost full", String("mount", "/var"))
	log.Warn("rate limited away")

	select {
	case s := <-got:
		if !strings.HasPrefix(s, "warn|[WARN] disk almost full") || !strings.Contains(s, "- mount=/var") {
			t.Fatalf("alert = %q", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("alert not delivered")
	}

	select {
	case s := <-got:
		t.Fatalf("unexpected second alert %q", s)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestServiceApplyDisablesAlerts(t *testing.T) {
	t.Parallel()
	svc, log := New(Config{Level: "info", Alert: AlertConfig{Enabled: true, RatePerSec: 10}})
	defer svc.Close()

	got := make(chan string, 4)
	svc.SetAlertSink(AlertFunc(func(_ context.Context, _, text string) error {
		got <- text
		return nil
	}))

	log.Warn("below default min level")
	svc.Apply(Config{Level: "info", Alert: AlertConfig{Enabled: false}})
	log.Error("alerts off")

	select {
	case s := <-got:
		t.Fatalf("unexpected alert %q", s)
	case <-time.After(200 * time.Millisecond):
	}
}
