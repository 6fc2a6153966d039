//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "chat-relay/errors"

	"chat-relay/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Create(m domain.Message) (domain.Message, error)
	FindPendingFor(receiver string) ([]domain.Message, error)
	UpdateStatus(id uuid.UUID, next domain.DeliveryStatus) (bool, error)
}

// MessageRepository persists messages in BadgerDB.
//
// Two key families are maintained:
//  1. "msg:{uuid}" holds the full message document.
//  2. "pending:{receiver}:{timestamp_padded}:{uuid}" indexes messages
//     still in the sent state, so the reconnect flush is a single
//     chronologically ordered prefix scan. The 19-digit zero padding
//     keeps lexicographical and chronological order identical.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

type diskMessage struct {
	ID       string                `json:"id"`
	Sender   string                `json:"sender"`
	Receiver string                `json:"receiver"`
	Body     string                `json:"body"`
	Lang     string                `json:"lang,omitempty"`
	Status   domain.DeliveryStatus `json:"status"`
	At       int64                 `json:"at"`
}

func messageKey(id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s", id))
}

func pendingKey(receiver string, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("pending:%s:%019d:%s", receiver, at.UnixNano(), id))
}

// Create assigns the identifier and creation timestamp, then writes the
// document and its pending index entry in a single transaction.
func (r MessageRepository) Create(m domain.Message) (domain.Message, error) {
	m.ID = uuid.New()
	m.CreatedAt = time.Now().UTC()
	if m.Status == "" {
		m.Status = domain.StatusSent
	}

	bytes, err := json.Marshal(fromMessage(m))
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(m.ID), bytes); err != nil {
			return err
		}
		if m.Status == domain.StatusSent {
			return txn.Set(pendingKey(m.Receiver, m.CreatedAt, m.ID), messageKey(m.ID))
		}
		return nil
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return m, nil
}

// FindPendingFor returns the sent backlog for a receiver, oldest first.
// Thanks to the padded timestamp in the index key, the prefix scan
// yields messages already in chronological order.
func (r MessageRepository) FindPendingFor(receiver string) ([]domain.Message, error) {
	var pending []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("pending:%s:", receiver))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var primaryKey []byte
			err := it.Item().Value(func(value []byte) error {
				primaryKey = append([]byte(nil), value...)
				return nil
			})
			if err != nil {
				return err
			}

			item, err := txn.Get(primaryKey)
			if errors.Is(err, badger.ErrKeyNotFound) {
				// Dangling index entry, the document owner is gone
				r.log.Warn("Pending index without document", "key", string(primaryKey))
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(value []byte) error {
				m, err := toMessage(value)
				if err != nil {
					return err
				}
				if m.Status == domain.StatusSent {
					pending = append(pending, m)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return pending, nil
}

// UpdateStatus advances a message to next and reports whether the
// write was applied. Non-monotonic writes are dropped and return
// false, so a stale delivered can never overwrite a seen. Once the
// message leaves the sent state its pending index entry is removed.
func (r MessageRepository) UpdateStatus(id uuid.UUID, next domain.DeliveryStatus) (bool, error) {
	if !next.Valid() {
		return false, apperrors.ErrInvalidMessage
	}
	var advanced bool
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(messageKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return err
		}

		var current domain.Message
		err = item.Value(func(value []byte) error {
			current, err = toMessage(value)
			return err
		})
		if err != nil {
			return err
		}

		if !current.Status.CanAdvance(next) {
			r.log.Debug("Dropping non-monotonic status write",
				"message_id", id, "current", current.Status, "next", next)
			return nil
		}

		wasPending := current.Status == domain.StatusSent
		current.Status = next
		advanced = true
		bytes, err := json.Marshal(fromMessage(current))
		if err != nil {
			return err
		}
		if err := txn.Set(messageKey(id), bytes); err != nil {
			return err
		}
		if wasPending {
			return txn.Delete(pendingKey(current.Receiver, current.CreatedAt, current.ID))
		}
		return nil
	})
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, apperrors.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return advanced, nil
}

// Get reads a single message by id.
func (r MessageRepository) Get(id uuid.UUID) (domain.Message, error) {
	var m domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(messageKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			m, err = toMessage(value)
			return err
		})
	})
	if err != nil {
		return domain.Message{}, err
	}
	return m, nil
}

func fromMessage(m domain.Message) diskMessage {
	return diskMessage{
		ID:       m.ID.String(),
		Sender:   m.Sender,
		Receiver: m.Receiver,
		Body:     m.Body,
		Lang:     m.Lang,
		Status:   m.Status,
		At:       m.CreatedAt.UnixNano(),
	}
}

func toMessage(value []byte) (domain.Message, error) {
	var doc diskMessage
	if err := json.Unmarshal(value, &doc); err != nil {
		return domain.Message{}, err
	}
	parsedID, err := uuid.Parse(doc.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        parsedID,
		Sender:    doc.Sender,
		Receiver:  doc.Receiver,
		Body:      doc.Body,
		Lang:      doc.Lang,
		Status:    doc.Status,
		CreatedAt: time.Unix(0, doc.At).UTC(),
	}, nil
}
