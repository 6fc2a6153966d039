package runtime

import (
	"context"
	"log/slog"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/moderation"
	"chat-relay/observability"

	"github.com/abadojack/whatlanggo"
)

// Router accepts send intents, persists them and fans the message out
// to both parties. The echo toward the sender keeps any other open view
// of the conversation in sync.
type Router struct {
	log       *slog.Logger
	store     contract.IMessageStore
	registry  contract.IPresenceRegistry
	tracker   *StatusTracker
	moderator moderation.Moderator
	stats     *observability.RelayStats
}

func NewRouter(log *slog.Logger, store contract.IMessageStore,
	registry contract.IPresenceRegistry, tracker *StatusTracker,
	moderator moderation.Moderator, stats *observability.RelayStats) *Router {
	return &Router{
		log:       log,
		store:     store,
		registry:  registry,
		tracker:   tracker,
		moderator: moderator,
		stats:     stats,
	}
}

// Send validates, persists and routes one message.
// Nothing is emitted to either party if persistence fails.
// The returned message's status reflects the immediate outcome:
// delivered when the receiver was present, sent otherwise.
func (r *Router) Send(ctx context.Context, cmd domain.SendCommand) (domain.Message, error) {
	draft := domain.Message{
		Sender:   cmd.Sender,
		Receiver: cmd.Receiver,
		Body:     cmd.Body,
		Status:   domain.StatusSent,
	}
	if err := draft.Validate(); err != nil {
		return domain.Message{}, err
	}

	draft.Body = r.moderator.Censor(draft.Body)
	info := whatlanggo.Detect(draft.Body)
	if info.IsReliable() {
		draft.Lang = info.Lang.Iso6391()
	}

	message, err := r.store.Create(draft)
	if err != nil {
		return domain.Message{}, err
	}
	r.stats.IncrRouted()

	// Dual emission: receiver gets the message, sender gets its echo
	receiverSink, receiverPresent := r.registry.Lookup(message.Receiver)
	if receiverPresent {
		r.push(ctx, receiverSink, message.Receiver, event.FromMessage(message.Receiver, message))
	}
	if senderSink, ok := r.registry.Lookup(message.Sender); ok {
		r.push(ctx, senderSink, message.Sender, event.FromMessage(message.Sender, message))
	}

	if receiverPresent {
		if err := r.tracker.MarkDelivered(ctx, message); err != nil {
			r.log.Warn("Immediate delivered transition failed",
				"message_id", message.ID, "error", err)
			return message, nil
		}
		message.Status = domain.StatusDelivered
	}
	return message, nil
}

func (r *Router) push(ctx context.Context, sink contract.EventSink, identity string, e event.DomainEvent) {
	if err := sink.Consume(ctx, e); err != nil {
		r.log.Warn("Failed to push message", "identity", identity, "error", err)
	}
}
