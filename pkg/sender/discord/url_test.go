package discord

import "testing"

func TestValidWebhookURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		url  string
		want bool
	}{
		{"valid", "https://discord.com/api/webhooks/123456789/abcDEF_123-xyz", true},
		{"empty", "", false},
		{"placeholder", "https://discord.com/api/webhooks/YOUR_WEBHOOK_URL", false},
		{"placeholder bare", "WEBHOOK_URL", false},
		{"http scheme", "http://discord.com/api/webhooks/123/abc", false},
		{"wrong host", "https://example.com/api/webhooks/123/abc", false},
		{"discordapp host", "https://discordapp.com/api/webhooks/123/abc", false},
		{"wrong prefix", "https://discord.com/api/hooks/123/abc", false},
		{"missing token", "https://discord.com/api/webhooks/123", false},
		{"extra segment", "https://discord.com/api/webhooks/123/abc/github", false},
		{"empty segment", "https://discord.com/api/webhooks//abc", false},
		{"non numeric id", "https://discord.com/api/webhooks/12a3/abc", false},
		{"placeholder id", "https://discord.com/api/webhooks/invalid/abc", false},
		{"placeholder token", "https://discord.com/api/webhooks/123/url", false},
		{"bad token chars", "https://discord.com/api/webhooks/123/abc.def", false},
		{"not a url", "::not a url::", false},
		{"relative", "/api/webhooks/123/abc", false},
		{"doubled slash before token", "https://discord.com/api/webhooks/123//AbCdEf", true},
		{"trailing slash", "https://discord.com/api/webhooks/123/abc/", true},
		{"default port", "https://discord.com:443/api/webhooks/123/abc", true},
		{"upper case host", "https://DISCORD.com/api/webhooks/123/abc", true},
		{"other port", "https://discord.com:8443/api/webhooks/123/abc", false},
		{"userinfo host trick", "https://discord.com@evil.example/api/webhooks/123/abc", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidWebhookURL(tc.url); got != tc.want {
				t.Fatalf("ValidWebhookURL(%q)=%v want %v", tc.url, got, tc.want)
			}
		})
	}
}
