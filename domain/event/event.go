// Package event defines the tagged variants exchanged between the core
// and connection sinks. Each variant has a fixed schema and is addressed
// to exactly one identity.
package event

import (
	"chat-relay/domain"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is anything the relay pushes toward a connected identity.
type DomainEvent interface {
	// Addressee is the identity whose connection should receive the event.
	Addressee() string
}

// MessageReceived carries a full message copy. The router emits one
// copy addressed to the receiver and one echo addressed to the sender.
type MessageReceived struct {
	To       string
	ID       uuid.UUID
	Sender   string
	Receiver string
	Body     string
	Lang     string
	Status   domain.DeliveryStatus
	At       time.Time
}

func (e MessageReceived) Addressee() string { return e.To }

// MessageDelivered tells the original sender a message reached its receiver.
type MessageDelivered struct {
	To        string
	MessageID uuid.UUID
}

func (e MessageDelivered) Addressee() string { return e.To }

// MessageSeen tells the original sender the receiver acknowledged the message.
type MessageSeen struct {
	To        string
	MessageID uuid.UUID
}

func (e MessageSeen) Addressee() string { return e.To }

// TypingStarted is a transient signal, never persisted.
type TypingStarted struct {
	To   string
	From string
}

func (e TypingStarted) Addressee() string { return e.To }

// TypingStopped is the counterpart of TypingStarted.
type TypingStopped struct {
	To   string
	From string
}

func (e TypingStopped) Addressee() string { return e.To }

// FromMessage builds the MessageReceived copy addressed to a given party.
func FromMessage(to string, m domain.Message) MessageReceived {
	return MessageReceived{
		To:       to,
		ID:       m.ID,
		Sender:   m.Sender,
		Receiver: m.Receiver,
		Body:     m.Body,
		Lang:     m.Lang,
		Status:   m.Status,
		At:       m.CreatedAt,
	}
}
