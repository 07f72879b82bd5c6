package notifier

// TextNotifier defines a minimal text notification interface.
// It is intentionally small so different components can depend on it without
// importing concrete implementations (e.g. Telegram).
type TextNotifier interface {
	SendText(text string) error
}

// StructuredNotifier is implemented by targets that want the message itself
// rather than a pre-rendered body, so they can render for their own medium.
type StructuredNotifier interface {
	SendStructured(msg StructuredMessage) error
}
