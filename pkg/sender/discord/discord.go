// Package discord delivers messages through Discord webhooks.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nexusevent/pkg/logx"
	"nexusevent/pkg/sender"
)

const (
	DefaultTimeout = 15 * time.Second

	maxErrorBody = 4 << 10
)

var userAgent = "NexusEvent-Go/" + sender.Version

// Config holds the destination webhook.
type Config struct {
	WebhookURL string
}

type Option func(*Sender)

// WithHTTPClient replaces the default client (15s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(s *Sender) {
		if c != nil {
			s.client = c
		}
	}
}

func WithLogger(l logx.Logger) Option {
	return func(s *Sender) { s.log = l }
}

func WithRetryPolicy(p sender.RetryPolicy) Option {
	return func(s *Sender) { s.policy = p }
}

// WithSleeper replaces the backoff wait, mainly for tests.
func WithSleeper(fn sender.SleepFunc) Option {
	return func(s *Sender) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// Sender posts messages to one Discord webhook.
//
// It is safe for concurrent use.
type Sender struct {
	cfg    Config
	client *http.Client
	policy sender.RetryPolicy
	sleep  sender.SleepFunc
	log    logx.Logger
}

var _ sender.Sender = (*Sender)(nil)

func New(cfg Config, opts ...Option) *Sender {
	s := &Sender{
		cfg:    Config{WebhookURL: strings.TrimSpace(cfg.WebhookURL)},
		client: &http.Client{Timeout: DefaultTimeout},
		policy: sender.DefaultRetryPolicy(),
		sleep:  sender.Sleep,
	}
	for _, o := range opts {
		if o != nil {
			o(s)
		}
	}
	if s.log.IsZero() {
		s.log = logx.Nop()
	}
	s.log = s.log.With(logx.String("platform", string(sender.PlatformDiscord)))
	return s
}

func (s *Sender) Platform() sender.Platform { return sender.PlatformDiscord }

func (s *Sender) ValidateConfig() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return ValidWebhookURL(s.cfg.WebhookURL)
}

func (s *Sender) Send(ctx context.Context, msg sender.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if !ValidWebhookURL(s.cfg.WebhookURL) {
		if strings.Contains(s.cfg.WebhookURL, placeholderMarker) {
			return fmt.Errorf("%w: discord webhook URL is still the %s placeholder", sender.ErrNotConfigured, placeholderMarker)
		}
		return fmt.Errorf("%w: invalid discord webhook URL format", sender.ErrInvalidConfig)
	}

	body, err := json.Marshal(BuildPayload(msg))
	if err != nil {
		return fmt.Errorf("discord: encode payload: %w", err)
	}

	log := s.log.With(logx.String("title", msg.Title))
	start := time.Now()
	onRetry := func(n int, err error, delay time.Duration) {
		log.Warn("discord send failed, retrying",
			logx.Int("attempt", n),
			logx.Int("max_retries", s.policy.MaxRetries),
			logx.Duration("backoff", delay),
			logx.Err(err))
	}
	attempts, err := sender.Retry(ctx, s.policy, s.sleep, retriable, onRetry, func(ctx context.Context, n int) error {
		log.Debug("discord send attempt", logx.Int("attempt", n))
		return s.post(ctx, body)
	})
	if err == nil {
		log.Info("discord message sent", logx.Int("attempts", attempts), logx.Duration("took", time.Since(start)))
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("discord: send aborted after %d attempt(s): %w", attempts, ctx.Err())
	}

	de := mapError(err, msg.Title, attempts)
	log.Warn("discord send failed",
		logx.Int("attempts", attempts),
		logx.String("category", string(de.Category)),
		logx.Int("status", de.Status),
		logx.Err(err))
	return de
}

// post performs one webhook request. Responses >= 400 become *StatusError;
// transport failures are returned as-is.
func (s *Sender) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newStatusError(resp.StatusCode, excerpt)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return nil
}
