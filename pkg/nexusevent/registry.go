package nexusevent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"nexusevent/pkg/eventbus"
	"nexusevent/pkg/logx"
	"nexusevent/pkg/sender"
	"nexusevent/pkg/sender/discord"
	"nexusevent/pkg/sender/telegram"
)

type Option func(*Registry)

func WithLogger(l logx.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithEventBus publishes delivery and broadcast events to bus.
func WithEventBus(bus eventbus.Bus) Option {
	return func(r *Registry) { r.bus = bus }
}

// WithRetryPolicy sets the policy used by senders created through AddDiscordSender
// and AddTelegramSender.
func WithRetryPolicy(p sender.RetryPolicy) Option {
	return func(r *Registry) { r.policy = &p }
}

// Registry maps trimmed names to senders.
type Registry struct {
	mu      sync.RWMutex
	senders map[string]sender.Sender
	order   []string

	log    logx.Logger
	bus    eventbus.Bus
	policy *sender.RetryPolicy
}

func New(opts ...Option) *Registry {
	r := &Registry{senders: map[string]sender.Sender{}}
	for _, o := range opts {
		if o != nil {
			o(r)
		}
	}
	if r.log.IsZero() {
		r.log = logx.Nop()
	}
	return r
}

// Logger returns the registry logger. Senders created by the registry inherit it.
func (r *Registry) Logger() logx.Logger { return r.log }

// AddSender registers s under name, replacing any sender already registered there.
func (r *Registry) AddSender(name string, s sender.Sender) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if s == nil {
		return ErrNilSender
	}

	r.mu.Lock()
	if _, exists := r.senders[name]; !exists {
		r.order = append(r.order, name)
	}
	r.senders[name] = s
	r.mu.Unlock()

	r.log.Debug("sender registered", logx.String("sender", name), logx.String("platform", string(s.Platform())))
	return nil
}

// RemoveSender reports whether a sender was removed.
func (r *Registry) RemoveSender(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.senders[name]; !ok {
		return false
	}
	delete(r.senders, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// AddDiscordSender registers a Discord webhook sender. The URL is not validated here;
// use ValidateSender or Send to surface configuration problems.
func (r *Registry) AddDiscordSender(name, webhookURL string, opts ...discord.Option) error {
	base := []discord.Option{discord.WithLogger(r.log.With(logx.String("sender", strings.TrimSpace(name))))}
	if r.policy != nil {
		base = append(base, discord.WithRetryPolicy(*r.policy))
	}
	return r.AddSender(name, discord.New(discord.Config{WebhookURL: webhookURL}, append(base, opts...)...))
}

// AddTelegramSender registers a Telegram bot sender.
func (r *Registry) AddTelegramSender(name string, cfg telegram.Config, opts ...telegram.Option) error {
	base := []telegram.Option{telegram.WithLogger(r.log.With(logx.String("sender", strings.TrimSpace(name))))}
	if r.policy != nil {
		base = append(base, telegram.WithRetryPolicy(*r.policy))
	}
	s, err := telegram.New(cfg, append(base, opts...)...)
	if err != nil {
		return err
	}
	return r.AddSender(name, s)
}

// SenderNames returns a snapshot of registered names. Callers must not rely on the order.
func (r *Registry) SenderNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered senders.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.senders)
}

// Get returns the sender registered under name.
func (r *Registry) Get(name string) (sender.Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.senders[strings.TrimSpace(name)]
	return s, ok
}

// Send delivers msg through the named sender. The sender's error is returned unmodified.
func (r *Registry) Send(ctx context.Context, name string, msg sender.Message) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	s, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrSenderNotFound, name)
	}
	return r.deliver(ctx, "", name, s, msg)
}

// ValidateSender reports false for unknown names.
func (r *Registry) ValidateSender(name string) bool {
	s, ok := r.Get(name)
	if !ok {
		return false
	}
	return sender.SafeValidate(s)
}

// ValidateAllSenders validates every registered sender, one at a time.
func (r *Registry) ValidateAllSenders() map[string]bool {
	out := map[string]bool{}
	for _, e := range r.snapshot(nil) {
		out[e.name] = sender.SafeValidate(e.s)
	}
	return out
}

// Clear removes every sender.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.senders = map[string]sender.Sender{}
	r.order = nil
	r.mu.Unlock()
}

type entry struct {
	name string
	s    sender.Sender
}

// snapshot copies registered senders, keeping only the given platforms when non-empty.
func (r *Registry) snapshot(platforms []sender.Platform) []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entry, 0, len(r.order))
	for _, n := range r.order {
		s := r.senders[n]
		if len(platforms) > 0 && !containsPlatform(platforms, s.Platform()) {
			continue
		}
		out = append(out, entry{name: n, s: s})
	}
	return out
}

func containsPlatform(ps []sender.Platform, p sender.Platform) bool {
	for _, x := range ps {
		if x == p {
			return true
		}
	}
	return false
}

// deliver runs one send and publishes its outcome.
func (r *Registry) deliver(ctx context.Context, broadcastID, name string, s sender.Sender, msg sender.Message) error {
	start := time.Now()
	err := s.Send(ctx, msg)
	r.publishDelivery(broadcastID, name, s.Platform(), msg.Title, err, time.Since(start))
	return err
}

// DeliveryEvent is the Data of delivery.sent and delivery.failed events.
type DeliveryEvent struct {
	Sender      string          `json:"sender"`
	Platform    sender.Platform `json:"platform"`
	Title       string          `json:"title"`
	BroadcastID string          `json:"broadcast_id,omitempty"`
	OK          bool            `json:"ok"`
	Error       string          `json:"error,omitempty"`
	Took        time.Duration   `json:"took"`
}

func (r *Registry) publishDelivery(broadcastID, name string, p sender.Platform, title string, err error, took time.Duration) {
	if r.bus == nil {
		return
	}
	ev := DeliveryEvent{Sender: name, Platform: p, Title: title, BroadcastID: broadcastID, OK: err == nil, Took: took}
	typ := eventbus.TypeDeliverySent
	if err != nil {
		typ = eventbus.TypeDeliveryFailed
		ev.Error = err.Error()
	}
	r.bus.Publish(eventbus.Event{Type: typ, Data: ev})
}
