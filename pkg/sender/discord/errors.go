package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"nexusevent/pkg/sender"
)

// StatusError is a webhook response with status >= 400.
type StatusError struct {
	Status int
	// APIMessage is Discord's "message" field, when the body carried one.
	APIMessage string
	Body       string
}

func (e *StatusError) Error() string {
	if e.APIMessage != "" {
		return fmt.Sprintf("discord webhook status %d: %s", e.Status, e.APIMessage)
	}
	if e.Body != "" {
		return fmt.Sprintf("discord webhook status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("discord webhook status %d", e.Status)
}

func newStatusError(status int, body []byte) *StatusError {
	se := &StatusError{Status: status, Body: strings.TrimSpace(string(body))}
	var apiErr discordgo.APIErrorMessage
	if json.Unmarshal(body, &apiErr) == nil {
		se.APIMessage = apiErr.Message
	}
	return se
}

// Transport failure codes.
const (
	codeConnReset   = "ECONNRESET"
	codeNotFound    = "ENOTFOUND"
	codeConnRefused = "ECONNREFUSED"
	codeTimedOut    = "ETIMEDOUT"
)

func transportCode(err error) string {
	switch {
	case errors.Is(err, syscall.ECONNRESET):
		return codeConnReset
	case errors.Is(err, syscall.ECONNREFUSED):
		return codeConnRefused
	case errors.Is(err, syscall.ETIMEDOUT):
		return codeTimedOut
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return codeNotFound
	}
	return ""
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

// retriable reports whether another attempt may succeed.
func retriable(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status >= 500 || se.Status == 429
	}
	if transportCode(err) != "" {
		return true
	}
	return isTimeout(err)
}

// mapError turns the last attempt's error into a DeliveryError with a readable message.
func mapError(err error, title string, attempts int) *sender.DeliveryError {
	de := &sender.DeliveryError{
		Platform: sender.PlatformDiscord,
		Category: sender.CategoryUnknown,
		Attempts: attempts,
		Err:      err,
	}

	var se *StatusError
	if errors.As(err, &se) {
		de.Status = se.Status
		switch {
		case se.Status == 400:
			de.Category = sender.CategoryMalformed
			de.Msg = "discord: message rejected as malformed (400)"
			if se.APIMessage != "" {
				de.Msg += ": " + se.APIMessage
			}
		case se.Status == 401:
			de.Category = sender.CategoryAuth
			de.Msg = "discord: webhook authentication failed (401), check the webhook token"
		case se.Status == 404:
			de.Category = sender.CategoryNotFound
			de.Msg = "discord: webhook not found (404), it may have been deleted"
		case se.Status == 429:
			de.Category = sender.CategoryRateLimited
			de.Msg = "discord: rate limit exceeded (429), try again later"
		case se.Status >= 500:
			de.Category = sender.CategoryServer
			de.Msg = fmt.Sprintf("discord: server error (%d), try again later", se.Status)
		default:
			de.Category = sender.CategoryAPI
			detail := se.APIMessage
			if detail == "" {
				detail = "unknown error"
			}
			de.Msg = fmt.Sprintf("discord: api error (%d): %s", se.Status, detail)
		}
		return de
	}

	switch code := transportCode(err); code {
	case codeNotFound:
		de.Category = sender.CategoryNetwork
		de.Msg = "discord: network error, cannot resolve discord.com"
		return de
	case codeConnRefused:
		de.Category = sender.CategoryNetwork
		de.Msg = "discord: network error, connection refused"
		return de
	case codeTimedOut:
		de.Category = sender.CategoryNetwork
		de.Msg = "discord: network error, connection timed out"
		return de
	case codeConnReset:
		de.Category = sender.CategoryNetwork
		de.Msg = "discord: network error, connection reset"
		return de
	}

	if isTimeout(err) {
		de.Category = sender.CategoryTimeout
		de.Msg = fmt.Sprintf("discord: request timed out after %d attempt(s)", attempts)
		return de
	}

	de.Msg = fmt.Sprintf("discord: failed to send message %q: %v", title, err)
	return de
}
