package runtime

import (
	"context"
	"log/slog"

	"chat-relay/contract"
	"chat-relay/observability"
)

// ReconnectSync drains an identity's offline backlog right after it
// registers: every message still sent is advanced to delivered and its
// sender notified. Each message is an independent unit of work, a
// failure on one never aborts the rest.
type ReconnectSync struct {
	log     *slog.Logger
	store   contract.IMessageStore
	tracker *StatusTracker
	stats   *observability.RelayStats
}

func NewReconnectSync(log *slog.Logger, store contract.IMessageStore,
	tracker *StatusTracker, stats *observability.RelayStats) *ReconnectSync {
	return &ReconnectSync{log: log, store: store, tracker: tracker, stats: stats}
}

// Flush is invoked right after the identity's registration, so the
// delivered notifications below can reach the reconnected client too
// when it is also the sender of a pending message's counterpart.
func (s *ReconnectSync) Flush(ctx context.Context, identity string) error {
	pending, err := s.store.FindPendingFor(identity)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	s.log.Info("Flushing offline backlog", "identity", identity, "count", len(pending))
	for _, message := range pending {
		if err := s.tracker.MarkDelivered(ctx, message); err != nil {
			s.log.Warn("Backlog entry flush failed",
				"message_id", message.ID, "identity", identity, "error", err)
			continue
		}
		s.stats.IncrFlushed()
	}
	return nil
}
