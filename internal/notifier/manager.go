package notifier

import (
	"strings"

	"tradepilot/internal/config"
	"tradepilot/internal/logger"
)

// EventKind classifies a push so the manager can gate by configuration.
type EventKind string

const (
	EventTrade         EventKind = "trade"
	EventError         EventKind = "error"
	EventBackendSwitch EventKind = "backend"
	EventStartup       EventKind = "startup"
)

// Manager fans a message out to every configured target, filtered by event
// kind. Delivery failures are logged and swallowed: notification is best
// effort and never blocks the decision loop.
type Manager struct {
	targets []TextNotifier
	enabled map[EventKind]bool
}

func NewManager(cfg config.NotifyConfig) *Manager {
	m := &Manager{enabled: make(map[EventKind]bool)}
	for _, ev := range cfg.Events {
		m.enabled[EventKind(strings.ToLower(strings.TrimSpace(ev)))] = true
	}
	if cfg.Telegram.Enabled {
		m.targets = append(m.targets, NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID))
	}
	return m
}

// AddTarget registers an extra delivery target.
func (m *Manager) AddTarget(t TextNotifier) {
	if t != nil {
		m.targets = append(m.targets, t)
	}
}

func (m *Manager) wants(kind EventKind) bool {
	return len(m.targets) > 0 && m.enabled[kind]
}

// Notify delivers the message to every target. Targets that accept the
// structured form get it as-is; the rest get one shared markdown rendering.
func (m *Manager) Notify(kind EventKind, msg StructuredMessage) {
	if !m.wants(kind) {
		return
	}
	var body string
	for _, t := range m.targets {
		var err error
		if sn, ok := t.(StructuredNotifier); ok {
			err = sn.SendStructured(msg)
		} else {
			if body == "" {
				body = msg.RenderMarkdown()
			}
			err = t.SendText(body)
		}
		if err != nil {
			logger.Warnf("notify: %s push failed: %v", kind, err)
		}
	}
}
