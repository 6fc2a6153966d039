//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"

	"github.com/google/uuid"
)

// EventSink is the write side of one live connection. Consume must not
// block forever: implementations either buffer or drop.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IMessageStore is the minimal durable contract the core relies on.
// The store owns identifiers and timestamps. UpdateStatus reports
// whether the transition was actually applied: a stale write is
// dropped without error and returns false.
type IMessageStore interface {
	Create(m domain.Message) (domain.Message, error)
	FindPendingFor(receiver string) ([]domain.Message, error)
	UpdateStatus(id uuid.UUID, next domain.DeliveryStatus) (bool, error)
}

// IPresenceRegistry maps identities to their live connection sinks.
type IPresenceRegistry interface {
	Register(identity string, sink EventSink)
	Unregister(sink EventSink)
	Lookup(identity string) (EventSink, bool)
}

// IRelayService is the application facade the transport layer talks to.
type IRelayService interface {
	Join(ctx context.Context, identity string, sink EventSink) error
	Leave(sink EventSink)
	Send(ctx context.Context, cmd domain.SendCommand) (domain.Message, error)
	MarkSeen(ctx context.Context, cmd domain.SeenCommand) error
	Relay(ctx context.Context, cmd domain.TypingCommand)
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}
