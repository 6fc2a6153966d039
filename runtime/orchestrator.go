package runtime

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/moderation"
	"chat-relay/observability"
)

//go:embed censored/*
var censoredFolder embed.FS

// Orchestrator owns the presence registry and composes the router,
// status tracker, reconnect sync and signaler into the relay's single
// entry surface. Registry mutations happen under its mutex, so the
// transport layer may call in from any goroutine.
type Orchestrator struct {
	log      *slog.Logger
	registry *Registry
	router   *Router
	tracker  *StatusTracker
	syncer   *ReconnectSync
	signaler *Signaler
	stats    *observability.RelayStats
}

func NewOrchestrator(log *slog.Logger, store contract.IMessageStore,
	maskRune rune, stats *observability.RelayStats) (*Orchestrator, error) {
	registry := NewRegistry()

	loader := NewBlocklistLoader(censoredFolder)
	data, err := loader.LoadAll("censored")
	if err != nil {
		return nil, err
	}
	log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))

	moderator, err := moderation.NewModerator(data.Words, maskRune)
	if err != nil {
		return nil, err
	}

	tracker := NewStatusTracker(log, store, registry, stats)
	return &Orchestrator{
		log:      log,
		registry: registry,
		router:   NewRouter(log, store, registry, tracker, moderator, stats),
		tracker:  tracker,
		syncer:   NewReconnectSync(log, store, tracker, stats),
		signaler: NewSignaler(log, registry, stats),
		stats:    stats,
	}, nil
}

// Join registers the identity's connection and drains its offline
// backlog. A flush failure leaves the registration in place: presence
// is already established and the next reconnect retries the backlog.
func (o *Orchestrator) Join(ctx context.Context, identity string, sink contract.EventSink) error {
	o.registry.Register(identity, sink)
	if err := o.syncer.Flush(ctx, identity); err != nil {
		o.log.Warn("Reconnect flush failed", "identity", identity, "error", err)
		return err
	}
	return nil
}

// Leave removes exactly the given connection. No message-status side
// effects: anything still sent awaits the identity's next Join.
func (o *Orchestrator) Leave(sink contract.EventSink) {
	o.registry.Unregister(sink)
}

func (o *Orchestrator) Send(ctx context.Context, cmd domain.SendCommand) (domain.Message, error) {
	return o.router.Send(ctx, cmd)
}

func (o *Orchestrator) MarkSeen(ctx context.Context, cmd domain.SeenCommand) error {
	return o.tracker.MarkSeen(ctx, cmd.MessageID, cmd.Sender)
}

func (o *Orchestrator) Relay(ctx context.Context, cmd domain.TypingCommand) {
	o.signaler.Relay(ctx, cmd)
}

// Lookup exposes presence reads for the transport layer.
func (o *Orchestrator) Lookup(identity string) (contract.EventSink, bool) {
	return o.registry.Lookup(identity)
}

// Identities snapshots the currently connected identities, for
// telemetry and diagnostics.
func (o *Orchestrator) Identities() []string {
	return o.registry.Identities()
}
