// Package domain contains core concepts of the relay.
// This file defines Message entities and the delivery lifecycle.
// Messages are validated by the domain and mutated only through status advances.
package domain

import (
	"strings"
	"time"

	"chat-relay/errors"

	"github.com/google/uuid"
)

// DeliveryStatus is the lifecycle stage of a message.
// Stages are strictly ordered and a message never moves backward.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusSeen      DeliveryStatus = "seen"
)

var statusRank = map[DeliveryStatus]int{
	StatusSent:      0,
	StatusDelivered: 1,
	StatusSeen:      2,
}

// Valid reports whether s is one of the known lifecycle stages.
func (s DeliveryStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvance reports whether moving from s to next respects the
// monotonic sent → delivered → seen order. Re-applying the current
// stage is not an advance.
func (s DeliveryStatus) CanAdvance(next DeliveryStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Message represents a single direct message between two identities.
type Message struct {
	ID        uuid.UUID
	Sender    string
	Receiver  string
	Body      string
	Lang      string // ISO-639-1 code detected at ingest, empty when undetermined
	Status    DeliveryStatus
	CreatedAt time.Time
}

// Validate enforces the send preconditions: both parties named,
// distinct, and a non-empty body. Identities must not contain ':',
// which the store reserves as a key separator.
func (m Message) Validate() error {
	if m.Sender == "" || m.Receiver == "" || m.Body == "" {
		return errors.ErrInvalidMessage
	}
	if m.Sender == m.Receiver {
		return errors.ErrInvalidMessage
	}
	if strings.ContainsRune(m.Sender, ':') || strings.ContainsRune(m.Receiver, ':') {
		return errors.ErrInvalidMessage
	}
	return nil
}
