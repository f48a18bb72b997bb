package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"nexusevent/pkg/logx"
)

func TestParseVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		raw      string
		kind     Kind
		source   string
		duration time.Duration
	}{
		{name: "cron", raw: "*/5 * * * *", kind: KindCron, source: "cron"},
		{name: "descriptor", raw: "@hourly", kind: KindCron, source: "cron"},
		{name: "every", raw: "@every 10m", kind: KindCron, source: "cron"},
		{name: "prefixed cron", raw: "cron:0 0 * * *", kind: KindCron, source: "cron"},
		{name: "duration", raw: "10m", kind: KindInterval, source: "duration", duration: 10 * time.Minute},
		{name: "prefixed interval", raw: "interval:45s", kind: KindInterval, source: "duration", duration: 45 * time.Second},
		{name: "every prefix", raw: "every:2h", kind: KindInterval, source: "duration", duration: 2 * time.Hour},
		{name: "hhmm", raw: "01:30", kind: KindInterval, source: "hhmm", duration: 90 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw, "")
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.raw, err)
			}
			if got.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.kind)
			}
			if got.Source != tt.source {
				t.Fatalf("Source = %s, want %s", got.Source, tt.source)
			}
			if tt.kind == KindInterval && got.Every != tt.duration {
				t.Fatalf("Every = %v, want %v", got.Every, tt.duration)
			}
			if got.Schedule == nil {
				t.Fatalf("Schedule is nil")
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "not-a-schedule", "cron:", "61 * * * *", "500ms", "00:75", "interval:0s"} {
		if _, err := Parse(raw, ""); err == nil {
			t.Fatalf("Parse(%q): expected error", raw)
		}
	}
}

func TestParseTimezone(t *testing.T) {
	t.Parallel()
	spec, err := Parse("0 9 * * *", "UTC")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	from := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	next := spec.Schedule.Next(from)
	if want := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("Next=%v want %v", next, want)
	}
	if _, err := Parse("0 9 * * *", "Mars/Olympus"); err == nil {
		t.Fatalf("expected timezone error")
	}
}

func TestSchedulerRunsIntervalJobs(t *testing.T) {
	t.Parallel()

	spec, err := Parse("1s", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var runs atomic.Int32
	s := New(logx.Nop())
	s.Replace(context.Background(), []Job{{Name: "tick", Spec: spec, Run: func(context.Context) { runs.Add(1) }}})
	defer s.Stop()

	entries := s.Entries()
	if len(entries) != 1 || entries[0].Name != "tick" || entries[0].Kind != KindInterval {
		t.Fatalf("entries=%+v", entries)
	}

	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if runs.Load() == 0 {
		t.Fatalf("job never ran")
	}
}

func TestSchedulerReplaceAndStop(t *testing.T) {
	t.Parallel()

	spec, _ := Parse("@hourly", "")
	s := New(logx.Nop())
	s.Replace(context.Background(), []Job{
		{Name: "a", Spec: spec, Run: func(context.Context) {}},
		{Name: "b", Spec: spec, Run: func(context.Context) {}},
	})
	if got := len(s.Entries()); got != 2 {
		t.Fatalf("entries=%d want 2", got)
	}
	s.Replace(context.Background(), []Job{{Name: "c", Spec: spec, Run: func(context.Context) {}}})
	if e := s.Entries(); len(e) != 1 || e[0].Name != "c" {
		t.Fatalf("entries=%+v", e)
	}
	s.Stop()
	if s.Entries() != nil {
		t.Fatalf("expected no entries after Stop")
	}
	s.Stop()
}
