// Package gateway bridges NATS subjects to the relay core. Each joined
// identity gets a channel-backed sink pumped toward its deliver subject
// by a dedicated goroutine.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/projection"
	"chat-relay/sink"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// publisher is the slice of *nats.Conn the pump needs; narrowing it
// keeps the gateway testable without a running server.
type publisher interface {
	Publish(subject string, data []byte) error
}

type connection struct {
	identity string
	sink     *sink.ChannelSink
	feed     *projection.Feed
	cancel   context.CancelFunc
}

type Gateway struct {
	log        *slog.Logger
	nc         *nats.Conn
	pub        publisher
	service    contract.IRelayService
	validate   *validator.Validate
	bufferSize int

	mu    sync.Mutex
	conns map[string]*connection
}

func NewGateway(log *slog.Logger, nc *nats.Conn, service contract.IRelayService,
	bufferSize int) *Gateway {
	return &Gateway{
		log:        log,
		nc:         nc,
		pub:        nc,
		service:    service,
		validate:   validator.New(),
		bufferSize: bufferSize,
		conns:      make(map[string]*connection),
	}
}

// Run subscribes the inbound subjects and blocks until the context is
// canceled, then tears every live connection down.
func (g *Gateway) Run(ctx context.Context) error {
	subs := make([]*nats.Subscription, 0, 5)
	subscribe := func(subject string, handler func(ctx context.Context, data []byte)) error {
		sub, err := g.nc.Subscribe(subject, func(msg *nats.Msg) {
			handler(ctx, msg.Data)
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		subs = append(subs, sub)
		return nil
	}

	if err := subscribe(SubjectJoin, g.handleJoin); err != nil {
		return err
	}
	if err := subscribe(SubjectLeave, g.handleLeave); err != nil {
		return err
	}
	if err := subscribe(SubjectSend, g.handleSend); err != nil {
		return err
	}
	if err := subscribe(SubjectSeen, g.handleSeen); err != nil {
		return err
	}
	if err := subscribe(SubjectTyping, g.handleTyping); err != nil {
		return err
	}

	g.log.Info("Gateway listening", "subjects",
		[]string{SubjectJoin, SubjectLeave, SubjectSend, SubjectSeen, SubjectTyping})

	<-ctx.Done()

	for _, sub := range subs {
		_ = sub.Unsubscribe()
	}
	g.closeAll()
	return nil
}

func (g *Gateway) handleJoin(ctx context.Context, data []byte) {
	var req joinRequest
	if !g.decode(SubjectJoin, data, &req) {
		return
	}

	pumpCtx, cancel := context.WithCancel(ctx)
	conn := &connection{
		identity: req.Identity,
		sink:     sink.NewChannelSink(g.log, g.bufferSize),
		feed:     projection.NewFeed(req.Identity),
		cancel:   cancel,
	}

	g.mu.Lock()
	previous := g.conns[req.Identity]
	g.conns[req.Identity] = conn
	g.mu.Unlock()

	// A rejoin replaces the previous connection: its pump stops and its
	// exact sink is unregistered, which cannot evict the new one.
	if previous != nil {
		previous.cancel()
		g.service.Leave(previous.sink)
	}

	go g.pump(pumpCtx, conn)

	if err := g.service.Join(ctx, req.Identity, conn.sink); err != nil {
		g.log.Warn("Join flush incomplete", "identity", req.Identity, "error", err)
	}
	g.log.Info("Identity joined", "identity", req.Identity)
}

func (g *Gateway) handleLeave(_ context.Context, data []byte) {
	var req leaveRequest
	if !g.decode(SubjectLeave, data, &req) {
		return
	}

	g.mu.Lock()
	conn := g.conns[req.Identity]
	delete(g.conns, req.Identity)
	g.mu.Unlock()

	if conn == nil {
		return
	}
	conn.cancel()
	g.service.Leave(conn.sink)
	g.log.Info("Identity left", "identity", req.Identity, "observed", conn.feed.Len())
}

func (g *Gateway) handleSend(ctx context.Context, data []byte) {
	var req sendRequest
	if !g.decode(SubjectSend, data, &req) {
		return
	}
	_, err := g.service.Send(ctx, domain.SendCommand{
		Sender:   req.Sender,
		Receiver: req.Receiver,
		Body:     req.Body,
	})
	if err != nil {
		g.log.Warn("Send rejected", "sender", req.Sender, "error", err)
	}
}

func (g *Gateway) handleSeen(ctx context.Context, data []byte) {
	var req seenRequest
	if !g.decode(SubjectSeen, data, &req) {
		return
	}
	messageID, err := uuid.Parse(req.MessageID)
	if err != nil {
		g.log.Warn("Malformed message id", "subject", SubjectSeen, "error", err)
		return
	}
	if err := g.service.MarkSeen(ctx, domain.SeenCommand{
		MessageID: messageID,
		Sender:    req.Sender,
	}); err != nil {
		g.log.Warn("Seen transition failed", "message_id", messageID, "error", err)
	}
}

func (g *Gateway) handleTyping(ctx context.Context, data []byte) {
	var req typingRequest
	if !g.decode(SubjectTyping, data, &req) {
		return
	}
	g.service.Relay(ctx, domain.TypingCommand{
		Kind:     domain.TypingKind(req.Kind),
		Sender:   req.Sender,
		Receiver: req.Receiver,
	})
}

// decode unmarshals and validates an inbound payload. Malformed input
// is logged and dropped at the boundary, it never reaches the core.
func (g *Gateway) decode(subject string, data []byte, out any) bool {
	if err := json.Unmarshal(data, out); err != nil {
		g.log.Warn("Malformed payload", "subject", subject, "error", err)
		return false
	}
	if err := g.validate.Struct(out); err != nil {
		g.log.Warn("Invalid payload", "subject", subject, "error", err)
		return false
	}
	return true
}

// pump drains one connection's sink toward its deliver subject.
func (g *Gateway) pump(ctx context.Context, conn *connection) {
	subject := deliverSubject(conn.identity)
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-conn.sink.Events:
			data, err := encodeEvent(evt)
			if err != nil {
				g.log.Error("Failed to encode event", "identity", conn.identity, "error", err)
				continue
			}
			if err := g.pub.Publish(subject, data); err != nil {
				g.log.Warn("Failed to publish event", "identity", conn.identity, "error", err)
				continue
			}
			conn.feed.Observe(evt)
		}
	}
}

func (g *Gateway) closeAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for identity, conn := range g.conns {
		conn.cancel()
		g.service.Leave(conn.sink)
		delete(g.conns, identity)
	}
}
