// Package projection builds local read models from observed events.
// It does not emit events or talk to the transport.
package projection

import (
	"sync"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

// Feed accumulates the messages one identity has observed on its
// connection, in arrival order.
type Feed struct {
	mu       sync.Mutex
	Owner    string
	Messages []domain.Message
}

func NewFeed(owner string) *Feed {
	return &Feed{Owner: owner}
}

func (f *Feed) Observe(e event.DomainEvent) {
	received, ok := e.(event.MessageReceived)
	if !ok {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = append(f.Messages, domain.Message{
		ID:        received.ID,
		Sender:    received.Sender,
		Receiver:  received.Receiver,
		Body:      received.Body,
		Lang:      received.Lang,
		Status:    received.Status,
		CreatedAt: received.At,
	})
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Messages)
}
