package notifier

import (
	"strings"
	"testing"
	"time"

	"tradepilot/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	msg := StructuredMessage{
		Icon:  "📈",
		Title: "Opened long",
		Sections: []MessageSection{
			{Title: "BTC/USDT", Lines: []string{"size 0.20", "leverage 5x", ""}},
			{Title: "empty", Lines: []string{"  "}},
		},
		Footer:    "source: deepseek",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	body := msg.RenderMarkdown()
	assert.Contains(t, body, "📈 Opened long")
	assert.Contains(t, body, "BTC/USDT")
	assert.Contains(t, body, "- size 0.20")
	assert.NotContains(t, body, "empty")
	assert.Contains(t, body, "source: deepseek")
	assert.Contains(t, body, "2025-06-01")
}

func TestRenderMarkdownEscapesFences(t *testing.T) {
	msg := StructuredMessage{
		Title:    "note",
		Sections: []MessageSection{{Lines: []string{"contains ``` fence"}}},
	}
	assert.NotContains(t, msg.RenderMarkdown(), "contains ``` fence")
	assert.Contains(t, msg.RenderMarkdown(), "'''")
}

func TestRenderMarkdownTruncates(t *testing.T) {
	msg := StructuredMessage{
		Title:    "big",
		Sections: []MessageSection{{Lines: []string{strings.Repeat("x", 5000)}}},
	}
	body := msg.RenderMarkdown()
	assert.LessOrEqual(t, len(body), maxMessageLen+3)
	assert.True(t, strings.HasSuffix(body, "..."))
}

type captureNotifier struct {
	sent []string
	err  error
}

func (c *captureNotifier) SendText(text string) error {
	c.sent = append(c.sent, text)
	return c.err
}

func TestManagerGatesByEventKind(t *testing.T) {
	m := NewManager(config.NotifyConfig{Events: []string{"trade"}})
	target := &captureNotifier{}
	m.AddTarget(target)

	m.Notify(EventTrade, StructuredMessage{Title: "filled"})
	m.Notify(EventError, StructuredMessage{Title: "boom"})

	assert.Len(t, target.sent, 1)
	assert.Contains(t, target.sent[0], "filled")
}

type structuredCapture struct {
	captureNotifier
	msgs []StructuredMessage
}

func (c *structuredCapture) SendStructured(msg StructuredMessage) error {
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestManagerPrefersStructuredTargets(t *testing.T) {
	m := NewManager(config.NotifyConfig{Events: []string{"trade"}})
	structured := &structuredCapture{}
	plain := &captureNotifier{}
	m.AddTarget(structured)
	m.AddTarget(plain)

	m.Notify(EventTrade, StructuredMessage{Title: "filled"})

	assert.Empty(t, structured.sent)
	assert.Len(t, structured.msgs, 1)
	assert.Equal(t, "filled", structured.msgs[0].Title)
	assert.Len(t, plain.sent, 1)
}

func TestManagerNoTargetsIsNoOp(t *testing.T) {
	m := NewManager(config.NotifyConfig{Events: []string{"trade"}})
	m.Notify(EventTrade, StructuredMessage{Title: "filled"})
}
