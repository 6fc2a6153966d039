package runtime

import (
	"sort"
	"sync"
	"time"

	apperrors "chat-relay/errors"

	"chat-relay/domain"

	"github.com/google/uuid"
)

// fakeStore is an in-memory IMessageStore honoring the same monotonic
// update rules as the badger repository.
type fakeStore struct {
	mu        sync.Mutex
	messages  map[uuid.UUID]domain.Message
	createErr error
	findErr   error
	updateErr map[uuid.UUID]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		messages:  make(map[uuid.UUID]domain.Message),
		updateErr: make(map[uuid.UUID]error),
	}
}

func (s *fakeStore) Create(m domain.Message) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return domain.Message{}, s.createErr
	}
	m.ID = uuid.New()
	m.CreatedAt = time.Now().UTC()
	if m.Status == "" {
		m.Status = domain.StatusSent
	}
	s.messages[m.ID] = m
	return m, nil
}

func (s *fakeStore) FindPendingFor(receiver string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var pending []domain.Message
	for _, m := range s.messages {
		if m.Receiver == receiver && m.Status == domain.StatusSent {
			pending = append(pending, m)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

func (s *fakeStore) UpdateStatus(id uuid.UUID, next domain.DeliveryStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.updateErr[id]; ok {
		return false, err
	}
	m, ok := s.messages[id]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	if !m.Status.CanAdvance(next) {
		return false, nil
	}
	m.Status = next
	s.messages[id] = m
	return true, nil
}

func (s *fakeStore) get(id uuid.UUID) domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[id]
}
