package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"chat-relay/domain/event"
)

// Inbound subjects. Clients publish fixed-schema JSON payloads,
// validated before anything reaches the core.
const (
	SubjectJoin   = "relay.join"
	SubjectLeave  = "relay.leave"
	SubjectSend   = "relay.send"
	SubjectSeen   = "relay.seen"
	SubjectTyping = "relay.typing"

	// deliverPrefix is completed with the identity: relay.deliver.bob
	deliverPrefix = "relay.deliver."
)

// Identities are forbidden to contain ':', the store's key separator.
type joinRequest struct {
	Identity string `json:"identity" validate:"required,excludesall=:"`
}

type leaveRequest struct {
	Identity string `json:"identity" validate:"required,excludesall=:"`
}

type sendRequest struct {
	Sender   string `json:"sender" validate:"required,excludesall=:"`
	Receiver string `json:"receiver" validate:"required,excludesall=:"`
	Body     string `json:"body" validate:"required"`
}

type seenRequest struct {
	MessageID string `json:"message_id" validate:"required,uuid"`
	Sender    string `json:"sender" validate:"required,excludesall=:"`
}

type typingRequest struct {
	Kind     string `json:"kind" validate:"required,oneof=typing stop_typing"`
	Sender   string `json:"sender" validate:"required,excludesall=:"`
	Receiver string `json:"receiver" validate:"required,excludesall=:"`
}

// envelope is the tagged variant every outbound event is wrapped in.
// Exactly one payload field is set, discriminated by Type.
type envelope struct {
	Type      string          `json:"type"`
	Message   *messagePayload `json:"message,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
	Sender    string          `json:"sender,omitempty"`
}

type messagePayload struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Body      string    `json:"body"`
	Lang      string    `json:"lang,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	typeReceive          = "receive"
	typeMessageDelivered = "message_delivered"
	typeMessageSeen      = "message_seen"
	typeTyping           = "typing"
	typeStopTyping       = "stop_typing"
)

// encodeEvent wraps a domain event into its wire envelope.
func encodeEvent(e event.DomainEvent) ([]byte, error) {
	var env envelope
	switch evt := e.(type) {
	case event.MessageReceived:
		env = envelope{Type: typeReceive, Message: &messagePayload{
			ID:        evt.ID.String(),
			Sender:    evt.Sender,
			Receiver:  evt.Receiver,
			Body:      evt.Body,
			Lang:      evt.Lang,
			Status:    string(evt.Status),
			CreatedAt: evt.At,
		}}
	case event.MessageDelivered:
		env = envelope{Type: typeMessageDelivered, MessageID: evt.MessageID.String()}
	case event.MessageSeen:
		env = envelope{Type: typeMessageSeen, MessageID: evt.MessageID.String()}
	case event.TypingStarted:
		env = envelope{Type: typeTyping, Sender: evt.From}
	case event.TypingStopped:
		env = envelope{Type: typeStopTyping, Sender: evt.From}
	default:
		return nil, fmt.Errorf("unsupported event %T", e)
	}
	return json.Marshal(env)
}

func deliverSubject(identity string) string {
	return deliverPrefix + identity
}
