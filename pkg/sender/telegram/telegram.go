// Package telegram delivers messages to a Telegram chat through the Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"nexusevent/pkg/logx"
	"nexusevent/pkg/sender"
)

const DefaultTimeout = 15 * time.Second

var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

type Config struct {
	Token    string
	ChatID   int64
	ThreadID int
	// APIURL overrides the Bot API endpoint (defaults to api.telegram.org).
	APIURL string
}

type Option func(*Sender)

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

func WithSleeper(fn sender.SleepFunc) Option {
	return func(s *Sender) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// Sender posts HTML-formatted messages to one chat (and optional forum thread).
type Sender struct {
	cfg    Config
	bot    *tele.Bot
	client *http.Client
	policy sender.RetryPolicy
	sleep  sender.SleepFunc
	log    logx.Logger
}

var _ sender.Sender = (*Sender)(nil)

// New builds the sender. The bot is created offline: no request is made until Send.
func New(cfg Config, opts ...Option) (*Sender, error) {
	cfg.Token = strings.TrimSpace(cfg.Token)
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: telegram token is empty", sender.ErrInvalidConfig)
	}
	s := &Sender{
		cfg:    cfg,
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
	s.log = s.log.With(logx.String("platform", string(sender.PlatformTelegram)))

	b, err := tele.NewBot(tele.Settings{
		URL:     strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/"),
		Token:   cfg.Token,
		Client:  s.client,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	s.bot = b
	return s, nil
}

func (s *Sender) Platform() sender.Platform { return sender.PlatformTelegram }

func (s *Sender) ValidateConfig() bool {
	return tokenPattern.MatchString(s.cfg.Token) && s.cfg.ChatID != 0
}

func (s *Sender) Send(ctx context.Context, msg sender.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if !s.ValidateConfig() {
		return fmt.Errorf("%w: telegram token or chat id is invalid", sender.ErrInvalidConfig)
	}

	text := Render(msg)
	chat := &tele.Chat{ID: s.cfg.ChatID}
	opt := &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: msg.URL == "",
		ThreadID:              s.cfg.ThreadID,
	}

	log := s.log.With(logx.String("title", msg.Title), logx.Int64("chat_id", s.cfg.ChatID))
	onRetry := func(n int, err error, delay time.Duration) {
		log.Warn("telegram send failed, retrying", logx.Int("attempt", n), logx.Duration("backoff", delay), logx.Err(err))
	}
	attempts, err := sender.Retry(ctx, s.policy, s.sleep, retriable, onRetry, func(ctx context.Context, n int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		// telebot takes no context: cancellation is seen between attempts only.
		_, err := s.bot.Send(chat, text, opt)
		return err
	})
	if err == nil {
		log.Info("telegram message sent", logx.Int("attempts", attempts))
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("telegram: send aborted after %d attempt(s): %w", attempts, ctx.Err())
	}

	de := mapError(err, attempts)
	log.Warn("telegram send failed", logx.Int("attempts", attempts), logx.String("category", string(de.Category)), logx.Err(err))
	return de
}

// statusSuffix matches telebot's "telegram: <description> (<code>)" errors.
var statusSuffix = regexp.MustCompile(`\((\d{3})\)\s*$`)

// apiStatus extracts the Bot API error code from err, 0 when there is none.
func apiStatus(err error) int {
	var fe tele.FloodError
	if errors.As(err, &fe) {
		return http.StatusTooManyRequests
	}
	var te *tele.Error
	if errors.As(err, &te) {
		return te.Code
	}
	if m := statusSuffix.FindStringSubmatch(err.Error()); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

func retriable(err error) bool {
	if err == nil {
		return false
	}
	if st := apiStatus(err); st != 0 {
		return st >= 500 || st == http.StatusTooManyRequests
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "timeout") ||
		strings.Contains(low, "connection reset") ||
		strings.Contains(low, "connection refused") ||
		strings.Contains(low, "no such host")
}

func mapError(err error, attempts int) *sender.DeliveryError {
	de := &sender.DeliveryError{
		Platform: sender.PlatformTelegram,
		Category: sender.CategoryUnknown,
		Attempts: attempts,
		Err:      err,
	}
	st := apiStatus(err)
	de.Status = st
	switch {
	case st == 400:
		de.Category = sender.CategoryMalformed
		de.Msg = fmt.Sprintf("telegram: request rejected (400): %v", err)
	case st == 401:
		de.Category = sender.CategoryAuth
		de.Msg = "telegram: bot token rejected (401)"
	case st == 403:
		de.Category = sender.CategoryAuth
		de.Msg = "telegram: bot is not allowed to post in this chat (403)"
	case st == 404:
		de.Category = sender.CategoryNotFound
		de.Msg = "telegram: bot or chat not found (404)"
	case st == 429:
		de.Category = sender.CategoryRateLimited
		de.Msg = "telegram: rate limit exceeded (429), try again later"
	case st >= 500:
		de.Category = sender.CategoryServer
		de.Msg = fmt.Sprintf("telegram: server error (%d), try again later", st)
	case st != 0:
		de.Category = sender.CategoryAPI
		de.Msg = fmt.Sprintf("telegram: api error (%d): %v", st, err)
	case retriable(err):
		de.Category = sender.CategoryNetwork
		de.Msg = fmt.Sprintf("telegram: network error: %v", err)
	default:
		de.Msg = fmt.Sprintf("telegram: send failed: %v", err)
	}
	return de
}
