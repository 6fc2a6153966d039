package runtime

import (
	"context"
	"errors"
	"log/slog"

	apperrors "chat-relay/errors"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/observability"

	"github.com/google/uuid"
)

// StatusTracker drives the sent → delivered → seen lifecycle.
// Every transition tries to notify the message's original sender;
// when the sender is offline the notification is simply lost, the next
// transition or reconnect flush is the only catch-up opportunity.
type StatusTracker struct {
	log      *slog.Logger
	store    contract.IMessageStore
	registry contract.IPresenceRegistry
	stats    *observability.RelayStats
}

func NewStatusTracker(log *slog.Logger, store contract.IMessageStore,
	registry contract.IPresenceRegistry, stats *observability.RelayStats) *StatusTracker {
	return &StatusTracker{log: log, store: store, registry: registry, stats: stats}
}

// MarkDelivered advances a message to delivered and notifies its sender.
// An unknown id is tolerated: the store no-ops, the notification is
// still attempted, so re-application stays idempotent for callers.
func (t *StatusTracker) MarkDelivered(ctx context.Context, m domain.Message) error {
	advanced, err := t.store.UpdateStatus(m.ID, domain.StatusDelivered)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		t.log.Debug("Delivered transition on unknown message", "message_id", m.ID)
	}
	if advanced {
		t.stats.IncrDelivered()
	}
	t.notify(ctx, m.Sender, event.MessageDelivered{To: m.Sender, MessageID: m.ID})
	return nil
}

// MarkSeen advances a message to seen and notifies the original sender.
func (t *StatusTracker) MarkSeen(ctx context.Context, id uuid.UUID, sender string) error {
	advanced, err := t.store.UpdateStatus(id, domain.StatusSeen)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		t.log.Debug("Seen transition on unknown message", "message_id", id)
	}
	if advanced {
		t.stats.IncrSeen()
	}
	t.notify(ctx, sender, event.MessageSeen{To: sender, MessageID: id})
	return nil
}

// notify is best effort: a presence miss is the normal offline path,
// not an error, and nothing is queued for later.
func (t *StatusTracker) notify(ctx context.Context, identity string, e event.DomainEvent) {
	sink, ok := t.registry.Lookup(identity)
	if !ok {
		t.stats.IncrNotificationMiss()
		return
	}
	if err := sink.Consume(ctx, e); err != nil {
		t.log.Warn("Failed to push status notification", "identity", identity, "error", err)
	}
}
