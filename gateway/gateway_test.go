package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/projection"
	"chat-relay/sink"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu        sync.Mutex
	published map[string][][]byte
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{published: make(map[string][][]byte)}
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published[subject] = append(p.published[subject], append([]byte(nil), data...))
	return nil
}

func (p *fakePublisher) get(subject string) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published[subject]
}

type fakeService struct {
	mu     sync.Mutex
	joined []string
	left   int
	sends  []domain.SendCommand
	seens  []domain.SeenCommand
	typing []domain.TypingCommand
}

func (s *fakeService) Join(_ context.Context, identity string, _ contract.EventSink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joined = append(s.joined, identity)
	return nil
}

func (s *fakeService) Leave(_ contract.EventSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.left++
}

func (s *fakeService) Send(_ context.Context, cmd domain.SendCommand) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, cmd)
	return domain.Message{}, nil
}

func (s *fakeService) MarkSeen(_ context.Context, cmd domain.SeenCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seens = append(s.seens, cmd)
	return nil
}

func (s *fakeService) Relay(_ context.Context, cmd domain.TypingCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typing = append(s.typing, cmd)
}

func newTestGateway(service contract.IRelayService, pub publisher) *Gateway {
	return &Gateway{
		log:        slog.Default(),
		pub:        pub,
		service:    service,
		validate:   validator.New(),
		bufferSize: 8,
		conns:      make(map[string]*connection),
	}
}

func TestGateway_HandleSend_Validates_Before_Dispatch(t *testing.T) {
	req := require.New(t)
	service := &fakeService{}
	g := newTestGateway(service, newFakePublisher())
	ctx := context.Background()

	g.handleSend(ctx, []byte(`{"sender":"alice","receiver":"bob","body":"hello"}`))
	req.Len(service.sends, 1)
	req.Equal("alice", service.sends[0].Sender)

	// Missing fields and broken JSON are dropped at the boundary
	g.handleSend(ctx, []byte(`{"sender":"alice","receiver":"bob"}`))
	g.handleSend(ctx, []byte(`{not json`))
	req.Len(service.sends, 1)
}

func TestGateway_HandleSeen_Parses_Message_Id(t *testing.T) {
	req := require.New(t)
	service := &fakeService{}
	g := newTestGateway(service, newFakePublisher())
	ctx := context.Background()

	id := uuid.New()
	payload, err := json.Marshal(map[string]string{"message_id": id.String(), "sender": "alice"})
	req.NoError(err)

	g.handleSeen(ctx, payload)
	req.Len(service.seens, 1)
	req.Equal(id, service.seens[0].MessageID)
	req.Equal("alice", service.seens[0].Sender)

	g.handleSeen(ctx, []byte(`{"message_id":"not-a-uuid","sender":"alice"}`))
	req.Len(service.seens, 1)
}

func TestGateway_HandleTyping_Rejects_Unknown_Kind(t *testing.T) {
	req := require.New(t)
	service := &fakeService{}
	g := newTestGateway(service, newFakePublisher())
	ctx := context.Background()

	g.handleTyping(ctx, []byte(`{"kind":"typing","sender":"alice","receiver":"bob"}`))
	g.handleTyping(ctx, []byte(`{"kind":"stop_typing","sender":"alice","receiver":"bob"}`))
	g.handleTyping(ctx, []byte(`{"kind":"shouting","sender":"alice","receiver":"bob"}`))

	req.Len(service.typing, 2)
	req.Equal(domain.TypingStart, service.typing[0].Kind)
	req.Equal(domain.TypingStop, service.typing[1].Kind)
}

func TestGateway_Rejects_Identities_With_Key_Separator(t *testing.T) {
	req := require.New(t)
	service := &fakeService{}
	g := newTestGateway(service, newFakePublisher())
	ctx := context.Background()

	// "bob:x" would alias the pending index prefix of "bob"
	g.handleJoin(ctx, []byte(`{"identity":"bob:x"}`))
	req.Empty(service.joined)
	req.Empty(g.conns)

	g.handleSend(ctx, []byte(`{"sender":"alice","receiver":"bob:x","body":"hello"}`))
	g.handleSend(ctx, []byte(`{"sender":"alice:admin","receiver":"bob","body":"hello"}`))
	req.Empty(service.sends)

	g.handleTyping(ctx, []byte(`{"kind":"typing","sender":"alice","receiver":"bob:x"}`))
	req.Empty(service.typing)
}

func TestGateway_Join_Replaces_Previous_Connection(t *testing.T) {
	req := require.New(t)
	service := &fakeService{}
	g := newTestGateway(service, newFakePublisher())
	ctx := context.Background()

	g.handleJoin(ctx, []byte(`{"identity":"bob"}`))
	g.handleJoin(ctx, []byte(`{"identity":"bob"}`))

	req.Equal([]string{"bob", "bob"}, service.joined)
	// The superseded connection was torn down exactly once
	req.Equal(1, service.left)
	req.Len(g.conns, 1)

	g.handleLeave(ctx, []byte(`{"identity":"bob"}`))
	req.Equal(2, service.left)
	req.Empty(g.conns)
}

func TestGateway_Pump_Publishes_Tagged_Envelopes(t *testing.T) {
	req := require.New(t)
	pub := newFakePublisher()
	g := newTestGateway(&fakeService{}, pub)

	conn := &connection{
		identity: "bob",
		sink:     sink.NewChannelSink(slog.Default(), 8),
		feed:     projection.NewFeed("bob"),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.pump(ctx, conn)

	id := uuid.New()
	req.NoError(conn.sink.Consume(ctx, event.MessageReceived{
		To: "bob", ID: id, Sender: "alice", Receiver: "bob",
		Body: "hello", Status: domain.StatusDelivered, At: time.Now().UTC(),
	}))
	req.NoError(conn.sink.Consume(ctx, event.MessageDelivered{To: "bob", MessageID: id}))

	req.Eventually(func() bool {
		return len(pub.get("relay.deliver.bob")) == 2
	}, time.Second, 10*time.Millisecond)

	var first envelope
	req.NoError(json.Unmarshal(pub.get("relay.deliver.bob")[0], &first))
	req.Equal("receive", first.Type)
	req.NotNil(first.Message)
	req.Equal(id.String(), first.Message.ID)
	req.Equal("delivered", first.Message.Status)

	var second envelope
	req.NoError(json.Unmarshal(pub.get("relay.deliver.bob")[1], &second))
	req.Equal("message_delivered", second.Type)
	req.Equal(id.String(), second.MessageID)

	req.Eventually(func() bool { return conn.feed.Len() == 1 }, time.Second, 10*time.Millisecond)
}
