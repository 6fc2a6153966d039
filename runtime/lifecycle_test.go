package runtime

import (
	"context"
	"log/slog"
	"testing"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/observability"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestStatusTracker_MarkSeen_Notifies_Sender(t *testing.T) {
	req := require.New(t)
	store := newFakeStore()
	registry := NewRegistry()
	tracker := NewStatusTracker(slog.Default(), store, registry, observability.NewRelayStats())

	created, err := store.Create(domain.Message{Sender: "alice", Receiver: "bob", Body: "hello"})
	req.NoError(err)
	advanced, err := store.UpdateStatus(created.ID, domain.StatusDelivered)
	req.NoError(err)
	req.True(advanced)

	alice := &stubSink{}
	registry.Register("alice", alice)

	req.NoError(tracker.MarkSeen(context.Background(), created.ID, "alice"))
	req.Equal(domain.StatusSeen, store.get(created.ID).Status)

	req.Len(alice.consumed, 1)
	seen, ok := alice.consumed[0].(event.MessageSeen)
	req.True(ok)
	req.Equal(created.ID, seen.MessageID)
}

func TestStatusTracker_MarkSeen_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	store := newFakeStore()
	registry := NewRegistry()
	stats := observability.NewRelayStats()
	tracker := NewStatusTracker(slog.Default(), store, registry, stats)

	created, err := store.Create(domain.Message{Sender: "alice", Receiver: "bob", Body: "hello"})
	req.NoError(err)

	req.NoError(tracker.MarkSeen(context.Background(), created.ID, "alice"))
	req.NoError(tracker.MarkSeen(context.Background(), created.ID, "alice"))
	req.Equal(domain.StatusSeen, store.get(created.ID).Status)

	// The dropped re-application must not inflate the counter
	req.Equal(uint64(1), stats.GetLatest().MessagesSeen)
}

func TestStatusTracker_Unknown_Id_Still_Attempts_Notification(t *testing.T) {
	req := require.New(t)
	store := newFakeStore()
	registry := NewRegistry()
	stats := observability.NewRelayStats()
	tracker := NewStatusTracker(slog.Default(), store, registry, stats)

	alice := &stubSink{}
	registry.Register("alice", alice)

	unknown := uuid.New()
	req.NoError(tracker.MarkSeen(context.Background(), unknown, "alice"))
	req.Len(alice.consumed, 1)

	// No transition happened, so nothing was counted
	req.Equal(uint64(0), stats.GetLatest().MessagesSeen)
}

func TestStatusTracker_Stale_Delivered_Is_Not_Counted(t *testing.T) {
	req := require.New(t)
	store := newFakeStore()
	registry := NewRegistry()
	stats := observability.NewRelayStats()
	tracker := NewStatusTracker(slog.Default(), store, registry, stats)

	created, err := store.Create(domain.Message{Sender: "alice", Receiver: "bob", Body: "hello"})
	req.NoError(err)
	req.NoError(tracker.MarkSeen(context.Background(), created.ID, "alice"))

	// A late delivered ack after seen is dropped by the store
	req.NoError(tracker.MarkDelivered(context.Background(), created))
	req.Equal(domain.StatusSeen, store.get(created.ID).Status)
	req.Equal(uint64(0), stats.GetLatest().MessagesDelivered)
	req.Equal(uint64(1), stats.GetLatest().MessagesSeen)
}

func TestStatusTracker_Absent_Sender_Loses_Notification(t *testing.T) {
	req := require.New(t)
	store := newFakeStore()
	registry := NewRegistry()
	stats := observability.NewRelayStats()
	tracker := NewStatusTracker(slog.Default(), store, registry, stats)

	created, err := store.Create(domain.Message{Sender: "alice", Receiver: "bob", Body: "hello"})
	req.NoError(err)

	// Nobody is registered: the transition still lands, the notification is lost
	req.NoError(tracker.MarkDelivered(context.Background(), created))
	req.Equal(domain.StatusDelivered, store.get(created.ID).Status)
	req.Equal(uint64(1), stats.GetLatest().NotificationMiss)
}
