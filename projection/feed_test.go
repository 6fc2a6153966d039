package projection

import (
	"testing"
	"time"

	"chat-relay/domain"
	"chat-relay/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestFeed_Observe_Collects_Messages_Only(t *testing.T) {
	req := require.New(t)
	feed := NewFeed("bob")

	id := uuid.New()
	feed.Observe(event.MessageReceived{
		To: "bob", ID: id, Sender: "alice", Receiver: "bob",
		Body: "hello", Status: domain.StatusDelivered, At: time.Now().UTC(),
	})
	feed.Observe(event.TypingStarted{To: "bob", From: "alice"})
	feed.Observe(event.MessageDelivered{To: "bob", MessageID: id})

	req.Equal(1, feed.Len())
	req.Equal(id, feed.Messages[0].ID)
	req.Equal("hello", feed.Messages[0].Body)
}
