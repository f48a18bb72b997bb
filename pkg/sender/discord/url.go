package discord

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	webhookHost       = "discord.com"
	webhookPathPrefix = "/api/webhooks/"

	// placeholderMarker is the token sample configs ship with.
	placeholderMarker = "YOUR_WEBHOOK_URL"
)

var (
	urlPlaceholders     = []string{placeholderMarker, "WEBHOOK_URL"}
	segmentPlaceholders = []string{"invalid", "url"}

	webhookIDPattern    = regexp.MustCompile(`^\d+$`)
	webhookTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ValidWebhookURL reports whether raw has the shape
// https://discord.com/api/webhooks/{numeric id}/{token}.
// It does not contact Discord.
func ValidWebhookURL(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	for _, p := range urlPlaceholders {
		if strings.Contains(raw, p) {
			return false
		}
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return false
	}
	if !strings.EqualFold(u.Scheme, "https") || !strings.EqualFold(u.Hostname(), webhookHost) {
		return false
	}
	if port := u.Port(); port != "" && port != "443" {
		return false
	}
	if !strings.HasPrefix(u.Path, webhookPathPrefix) {
		return false
	}

	// "api", "webhooks", id, token
	segs := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(segs) != 4 {
		return false
	}
	id, token := segs[2], segs[3]
	if isPlaceholderSegment(id) || isPlaceholderSegment(token) {
		return false
	}
	return webhookIDPattern.MatchString(id) && webhookTokenPattern.MatchString(token)
}

func isPlaceholderSegment(s string) bool {
	for _, p := range segmentPlaceholders {
		if s == p {
			return true
		}
	}
	return false
}
