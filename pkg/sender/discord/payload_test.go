package discord

import (
	"encoding/json"
	"testing"
	"time"

	"nexusevent/pkg/sender"
)

func TestBuildPayloadTitleOnly(t *testing.T) {
	t.Parallel()

	p := BuildPayload(sender.Message{Title: "T"})
	if p.Content != "T" {
		t.Fatalf("content=%q want %q", p.Content, "T")
	}
	if len(p.Embeds) != 0 {
		t.Fatalf("expected no embeds, got %d", len(p.Embeds))
	}

	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"content":"T"}` {
		t.Fatalf("json=%s", raw)
	}
}

func TestBuildPayloadURLInContent(t *testing.T) {
	t.Parallel()

	p := BuildPayload(sender.Message{Title: "T", URL: "https://x.example"})
	if want := "「T」 https://x.example"; p.Content != want {
		t.Fatalf("content=%q want %q", p.Content, want)
	}
	if len(p.Embeds) != 0 {
		t.Fatalf("URL alone must not produce an embed")
	}
}

func TestBuildPayloadEmbed(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("X", 2*3600))
	p := BuildPayload(sender.Message{
		Title:     "T",
		Content:   "C",
		Author:    "A",
		URL:       "https://x.example",
		Timestamp: ts,
	})
	if len(p.Embeds) != 1 {
		t.Fatalf("embeds=%d want 1", len(p.Embeds))
	}
	e := p.Embeds[0]
	if e.Title != "T" || e.Description != "C" || e.URL != "https://x.example" {
		t.Fatalf("unexpected embed: %+v", e)
	}
	if e.Color != DefaultColor {
		t.Fatalf("color=%#x want %#x", e.Color, DefaultColor)
	}
	if len(e.Fields) != 1 || e.Fields[0].Name != "Author" || e.Fields[0].Value != "A" || !e.Fields[0].Inline {
		t.Fatalf("unexpected fields: %+v", e.Fields)
	}
	if e.Footer == nil || e.Footer.Text != "NexusEvent" {
		t.Fatalf("unexpected footer: %+v", e.Footer)
	}
	if e.Timestamp != "2024-03-01T10:30:00.000Z" {
		t.Fatalf("timestamp=%q", e.Timestamp)
	}
}

func TestBuildPayloadAuthorOnlyAndColor(t *testing.T) {
	t.Parallel()

	p := BuildPayload(sender.Message{Title: "T", Author: "ops", Color: 0xff0000})
	if len(p.Embeds) != 1 {
		t.Fatalf("embeds=%d want 1", len(p.Embeds))
	}
	e := p.Embeds[0]
	if e.Description != "" || e.Timestamp != "" || e.URL != "" {
		t.Fatalf("unexpected optional embed fields: %+v", e)
	}
	if e.Color != 0xff0000 {
		t.Fatalf("color=%#x want 0xff0000", e.Color)
	}
}
