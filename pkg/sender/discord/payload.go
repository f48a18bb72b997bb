package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"nexusevent/pkg/sender"
)

const (
	// DefaultColor is used for embeds when the message sets no color.
	DefaultColor = 0x33ccff

	footerText  = "NexusEvent"
	authorField = "Author"

	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Payload is the JSON body of a webhook execute request.
type Payload struct {
	Content string                    `json:"content,omitempty"`
	Embeds  []*discordgo.MessageEmbed `json:"embeds,omitempty"`
}

// BuildPayload converts msg into a webhook payload. It never fails.
func BuildPayload(msg sender.Message) Payload {
	p := Payload{Content: msg.Title}
	if msg.URL != "" {
		p.Content = "「" + msg.Title + "」 " + msg.URL
	}

	if msg.Content == "" && msg.Author == "" {
		return p
	}

	color := msg.Color
	if color == 0 {
		color = DefaultColor
	}
	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Content,
		URL:         msg.URL,
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
	}
	if msg.Author != "" {
		embed.Fields = []*discordgo.MessageEmbedField{{
			Name:   authorField,
			Value:  msg.Author,
			Inline: true,
		}}
	}
	if !msg.Timestamp.IsZero() {
		embed.Timestamp = formatTimestamp(msg.Timestamp)
	}
	p.Embeds = []*discordgo.MessageEmbed{embed}
	return p
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
