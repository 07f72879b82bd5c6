package notifier

import (
	"strings"
	"time"
)

// Telegram rejects bodies past ~4096 bytes; stay comfortably under.
const maxMessageLen = 3800

// MessageSection is one titled block of a notification.
type MessageSection struct {
	Title string
	Lines []string
}

// StructuredMessage is the uniform push format for every event kind.
type StructuredMessage struct {
	Icon      string
	Title     string
	Sections  []MessageSection
	Footer    string
	Timestamp time.Time
}

// RenderMarkdown produces the Markdown body, trimmed to the Telegram limit.
func (m StructuredMessage) RenderMarkdown() string {
	var b strings.Builder

	if header := strings.TrimSpace(m.Icon + " " + m.Title); header != "" {
		b.WriteString(header)
		b.WriteString("\n\n")
	}

	blocks := make([]string, 0, len(m.Sections))
	for _, sec := range m.Sections {
		if block := sec.render(); block != "" {
			blocks = append(blocks, block)
		}
	}
	if len(blocks) > 0 {
		b.WriteString("```\n")
		b.WriteString(strings.Join(blocks, "\n"))
		b.WriteString("```\n\n")
	}

	if footer := strings.TrimSpace(m.Footer); footer != "" {
		b.WriteString(escapeFences(footer))
		b.WriteString("\n")
	}
	if !m.Timestamp.IsZero() {
		b.WriteString("Time: " + m.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}

	body := strings.TrimSpace(b.String())
	if len(body) > maxMessageLen {
		body = body[:maxMessageLen] + "..."
	}
	return body
}

func (s MessageSection) render() string {
	var b strings.Builder
	for _, line := range s.Lines {
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		b.WriteString("- ")
		b.WriteString(escapeFences(text))
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return ""
	}
	if title := strings.TrimSpace(s.Title); title != "" {
		return escapeFences(title) + "\n" + b.String()
	}
	return b.String()
}

// escapeFences keeps user-provided text from closing the code block.
func escapeFences(s string) string {
	return strings.ReplaceAll(s, "```", "'''")
}
