package domain

import "github.com/google/uuid"

// SendCommand is an intent to deliver a new message.
type SendCommand struct {
	Sender   string
	Receiver string
	Body     string
}

// SeenCommand acknowledges that the receiver has read a message.
// Sender names the original author to notify.
type SeenCommand struct {
	MessageID uuid.UUID
	Sender    string
}

// TypingKind discriminates the two transient typing signals.
type TypingKind string

const (
	TypingStart TypingKind = "typing"
	TypingStop  TypingKind = "stop_typing"
)

// TypingCommand is a transient signal from Sender toward Receiver.
type TypingCommand struct {
	Kind     TypingKind
	Sender   string
	Receiver string
}
