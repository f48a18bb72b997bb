package nexusevent

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nexusevent/pkg/eventbus"
	"nexusevent/pkg/sender"
)

type fakeSender struct {
	platform sender.Platform
	valid    bool
	err      error
	delay    time.Duration
	panics   bool

	calls atomic.Int32
	mu    sync.Mutex
	got   []sender.Message
}

func (f *fakeSender) Platform() sender.Platform { return f.platform }
func (f *fakeSender) ValidateConfig() bool {
	if f.panics {
		panic("validator exploded")
	}
	return f.valid
}

func (f *fakeSender) Send(ctx context.Context, msg sender.Message) error {
	f.calls.Add(1)
	f.mu.Lock()
	f.got = append(f.got, msg)
	f.mu.Unlock()
	if f.panics {
		panic("send exploded")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func ok(p sender.Platform) *fakeSender { return &fakeSender{platform: p, valid: true} }

func failing(p sender.Platform, err error) *fakeSender {
	return &fakeSender{platform: p, err: err}
}

func TestAddSenderTrimsAndOverwrites(t *testing.T) {
	t.Parallel()

	r := New()
	first, second := ok(sender.PlatformDiscord), ok(sender.PlatformDiscord)
	if err := r.AddSender("  alerts ", first); err != nil {
		t.Fatalf("AddSender: %v", err)
	}
	if err := r.AddSender("alerts", second); err != nil {
		t.Fatalf("AddSender: %v", err)
	}
	if names := r.SenderNames(); len(names) != 1 || names[0] != "alerts" {
		t.Fatalf("names=%v want [alerts]", names)
	}
	if err := r.Send(context.Background(), "alerts", sender.Message{Title: "x"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if first.calls.Load() != 0 || second.calls.Load() != 1 {
		t.Fatalf("overwrite not honored: first=%d second=%d", first.calls.Load(), second.calls.Load())
	}
}

func TestAddSenderRejectsEmptyName(t *testing.T) {
	t.Parallel()

	r := New()
	for _, name := range []string{"", "   "} {
		if err := r.AddSender(name, ok(sender.PlatformDiscord)); !errors.Is(err, ErrEmptyName) {
			t.Fatalf("name %q: err=%v want ErrEmptyName", name, err)
		}
	}
	if err := r.AddSender("x", nil); !errors.Is(err, ErrNilSender) {
		t.Fatalf("err=%v want ErrNilSender", err)
	}
	if r.Len() != 0 {
		t.Fatalf("registry should be empty, has %d", r.Len())
	}
}

func TestRemoveSender(t *testing.T) {
	t.Parallel()

	r := New()
	_ = r.AddSender("a", ok(sender.PlatformDiscord))
	_ = r.AddSender("b", ok(sender.PlatformDiscord))

	if !r.RemoveSender(" a ") {
		t.Fatalf("expected removal")
	}
	if r.RemoveSender("a") || r.RemoveSender("") || r.RemoveSender("missing") {
		t.Fatalf("unexpected removal")
	}
	if names := r.SenderNames(); len(names) != 1 || names[0] != "b" {
		t.Fatalf("names=%v want [b]", names)
	}
}

func TestSendUnknownSender(t *testing.T) {
	t.Parallel()

	r := New()
	err := r.Send(context.Background(), "ghost", sender.Message{Title: "x"})
	if !errors.Is(err, ErrSenderNotFound) {
		t.Fatalf("err=%v want ErrSenderNotFound", err)
	}
	if err := r.Send(context.Background(), " ", sender.Message{Title: "x"}); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("err=%v want ErrEmptyName", err)
	}
}

func TestSendReturnsSenderErrorUnmodified(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	r := New()
	_ = r.AddSender("a", failing(sender.PlatformDiscord, boom))
	if err := r.Send(context.Background(), "a", sender.Message{Title: "x"}); err != boom {
		t.Fatalf("err=%v want boom", err)
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	r := New()
	_ = r.AddSender("a", ok(sender.PlatformDiscord))
	_ = r.AddSender("b", ok(sender.PlatformTelegram))
	r.Clear()
	if len(r.SenderNames()) != 0 {
		t.Fatalf("expected no senders after Clear")
	}
	res, err := r.Broadcast(context.Background(), sender.Message{Title: "x"})
	if err != nil || res.Total != 0 {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}

func TestValidateSenders(t *testing.T) {
	t.Parallel()

	r := New()
	_ = r.AddSender("good", ok(sender.PlatformDiscord))
	_ = r.AddSender("bad", &fakeSender{platform: sender.PlatformDiscord})
	_ = r.AddSender("panicky", &fakeSender{platform: sender.PlatformDiscord, panics: true})

	if !r.ValidateSender("good") || r.ValidateSender("bad") || r.ValidateSender("ghost") {
		t.Fatalf("ValidateSender mismatch")
	}

	got := r.ValidateAllSenders()
	want := map[string]bool{"good": true, "bad": false, "panicky": false}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestAddDiscordSender(t *testing.T) {
	t.Parallel()

	r := New()
	if err := r.AddDiscordSender("discord", "https://discord.com/api/webhooks/1/abc"); err != nil {
		t.Fatalf("AddDiscordSender: %v", err)
	}
	if err := r.AddDiscordSender("placeholder", "https://discord.com/api/webhooks/YOUR_WEBHOOK_URL"); err != nil {
		t.Fatalf("AddDiscordSender: %v", err)
	}
	if !r.ValidateSender("discord") || r.ValidateSender("placeholder") {
		t.Fatalf("validation mismatch")
	}
	err := r.Send(context.Background(), "placeholder", sender.Message{Title: "x"})
	if !errors.Is(err, sender.ErrNotConfigured) {
		t.Fatalf("err=%v want ErrNotConfigured", err)
	}
	s, _ := r.Get("discord")
	if s.Platform() != sender.PlatformDiscord {
		t.Fatalf("platform=%s", s.Platform())
	}
}

func TestDefaultRegistry(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)

	a := Default()
	if Default() != a {
		t.Fatalf("Default should return the same instance")
	}
	_ = a.AddSender("x", ok(sender.PlatformDiscord))
	ResetDefault()
	if b := Default(); b == a || b.Len() != 0 {
		t.Fatalf("ResetDefault should discard the previous instance")
	}
}

func TestSendPublishesEvents(t *testing.T) {
	t.Parallel()

	bus := eventbus.New()
	ch, unsub := bus.Subscribe(4)
	defer unsub()

	r := New(WithEventBus(bus))
	_ = r.AddSender("a", ok(sender.PlatformDiscord))
	_ = r.AddSender("b", failing(sender.PlatformDiscord, errors.New("nope")))

	_ = r.Send(context.Background(), "a", sender.Message{Title: "t"})
	_ = r.Send(context.Background(), "b", sender.Message{Title: "t"})

	var types []string
	for i := 0; i < 2; i++ {
		select {
		case e := <-ch:
			types = append(types, e.Type)
			de, okData := e.Data.(DeliveryEvent)
			if !okData || de.Title != "t" {
				t.Fatalf("unexpected data %#v", e.Data)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing event %d", i)
		}
	}
	sort.Strings(types)
	if types[0] != eventbus.TypeDeliveryFailed || types[1] != eventbus.TypeDeliverySent {
		t.Fatalf("types=%v", types)
	}
}
