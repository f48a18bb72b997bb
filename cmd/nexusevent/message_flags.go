package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nexusevent/pkg/sender"
)

type messageFlags struct {
	title   string
	content string
	url     string
	author  string
	color   string
}

func (f *messageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Message title (required)")
	cmd.Flags().StringVarP(&f.content, "content", "m", "", "Message body")
	cmd.Flags().StringVar(&f.url, "url", "", "Link attached to the title")
	cmd.Flags().StringVar(&f.author, "author", "", "Author shown with the message")
	cmd.Flags().StringVar(&f.color, "color", "", "Embed color as #rrggbb, 0xrrggbb or decimal")
	_ = cmd.MarkFlagRequired("title")
}

func (f *messageFlags) message() (sender.Message, error) {
	color, err := parseColor(f.color)
	if err != nil {
		return sender.Message{}, err
	}
	return sender.Message{
		Title:     f.title,
		Content:   f.content,
		URL:       f.url,
		Author:    f.author,
		Color:     color,
		Timestamp: time.Now(),
	}, nil
}

func parseColor(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	base := 10
	switch {
	case strings.HasPrefix(s, "#"):
		s, base = s[1:], 16
	case strings.HasPrefix(strings.ToLower(s), "0x"):
		s, base = s[2:], 16
	}
	v, err := strconv.ParseInt(s, base, 32)
	if err != nil || v < 0 || v > 0xffffff {
		return 0, fmt.Errorf("invalid color %q", raw)
	}
	return int(v), nil
}
