// Package sink provides the channel-backed connection handle used by
// the transport layer: the core writes events into it, a per-connection
// pump drains it toward the wire.
package sink

import (
	"chat-relay/domain/event"
	"context"
	"log/slog"
)

type ChannelSink struct {
	Events chan event.DomainEvent
	log    *slog.Logger
}

func NewChannelSink(log *slog.Logger, bufferSize int) *ChannelSink {
	return &ChannelSink{
		Events: make(chan event.DomainEvent, bufferSize),
		log:    log,
	}
}

// Consume is called by the core on its own goroutine.
// A full buffer means the client is not keeping up; the event is
// dropped rather than blocking the relay (backpressure by shedding).
func (s *ChannelSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.log.Warn("Connection buffer full, dropping event", "addressee", e.Addressee())
		return nil
	}
}
