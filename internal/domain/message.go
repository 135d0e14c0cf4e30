package domain

import "time"

// InboundMessage is one text message received from Telegram, regardless of
// whether it arrived via polling or webhook.
type InboundMessage struct {
	ChatID    string
	SenderID  string
	Text      string
	Timestamp time.Time
}

// MessageRef identifies a message the bot has sent, so it can later be
// edited in place or deleted. Each in-flight request owns at most one such
// reference: its status message.
type MessageRef struct {
	ChatID    string
	MessageID int
}
