package telegram

import (
	"unicode/utf8"

	"nexusevent/pkg/sender"
)

const (
	timestampLayout = "2006-01-02 15:04:05 UTC"
	blockSep        = "\n\n"
)

// Render formats msg as Telegram HTML. Content is shortened so the visible
// text stays within MaxMessageRunes.
func Render(msg sender.Message) string {
	head := []H{B(msg.Title)}
	var tail []H
	if msg.URL != "" {
		tail = append(tail, Link(msg.URL, msg.URL))
	}
	if msg.Author != "" {
		tail = append(tail, I(msg.Author))
	}

	var stamp H
	if !msg.Timestamp.IsZero() {
		stamp = Code(msg.Timestamp.UTC().Format(timestampLayout))
	}

	if msg.Content != "" {
		budget := MaxMessageRunes - visibleRunes(msg)
		head = append(head, Esc(TruncRunes(msg.Content, budget)))
	}

	out := JoinH(blockSep, append(head, tail...)...)
	if stamp != "" {
		out = JoinH("\n", out, stamp)
	}
	return out.String()
}

// visibleRunes counts the rendered text of everything except Content,
// separators included.
func visibleRunes(msg sender.Message) int {
	n := utf8.RuneCountInString(msg.Title)
	for _, s := range []string{msg.URL, msg.Author} {
		if s != "" {
			n += len(blockSep) + utf8.RuneCountInString(s)
		}
	}
	if !msg.Timestamp.IsZero() {
		n += 1 + len(timestampLayout)
	}
	// Separator before Content.
	return n + len(blockSep)
}
