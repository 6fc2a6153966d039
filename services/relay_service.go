package services

import (
	"context"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/runtime"
)

// RelayService is the thin application facade the transport layer
// talks to. It exists so the gateway never touches the orchestrator's
// internals directly.
type RelayService struct {
	orchestrator *runtime.Orchestrator
}

func NewRelayService(o *runtime.Orchestrator) *RelayService {
	return &RelayService{orchestrator: o}
}

func (s *RelayService) Join(ctx context.Context, identity string, sink contract.EventSink) error {
	return s.orchestrator.Join(ctx, identity, sink)
}

func (s *RelayService) Leave(sink contract.EventSink) {
	s.orchestrator.Leave(sink)
}

func (s *RelayService) Send(ctx context.Context, cmd domain.SendCommand) (domain.Message, error) {
	return s.orchestrator.Send(ctx, cmd)
}

func (s *RelayService) MarkSeen(ctx context.Context, cmd domain.SeenCommand) error {
	return s.orchestrator.MarkSeen(ctx, cmd)
}

func (s *RelayService) Relay(ctx context.Context, cmd domain.TypingCommand) {
	s.orchestrator.Relay(ctx, cmd)
}
