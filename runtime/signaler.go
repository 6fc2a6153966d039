package runtime

import (
	"context"
	"log/slog"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/observability"
)

// Signaler relays transient typing indicators. No persistence, no
// state: an absent receiver means the signal is silently dropped.
type Signaler struct {
	log      *slog.Logger
	registry contract.IPresenceRegistry
	stats    *observability.RelayStats
}

func NewSignaler(log *slog.Logger, registry contract.IPresenceRegistry,
	stats *observability.RelayStats) *Signaler {
	return &Signaler{log: log, registry: registry, stats: stats}
}

func (s *Signaler) Relay(ctx context.Context, cmd domain.TypingCommand) {
	sink, ok := s.registry.Lookup(cmd.Receiver)
	if !ok {
		s.stats.IncrTypingDropped()
		return
	}

	var e event.DomainEvent
	switch cmd.Kind {
	case domain.TypingStart:
		e = event.TypingStarted{To: cmd.Receiver, From: cmd.Sender}
	case domain.TypingStop:
		e = event.TypingStopped{To: cmd.Receiver, From: cmd.Sender}
	default:
		s.log.Warn("Unknown typing signal", "kind", cmd.Kind)
		return
	}

	if err := sink.Consume(ctx, e); err != nil {
		s.log.Warn("Failed to relay typing signal", "receiver", cmd.Receiver, "error", err)
		return
	}
	s.stats.IncrTypingRelayed()
}
