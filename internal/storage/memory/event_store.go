package memory

import (
	"context"
	"sort"
	"sync"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/domain"
	"solana-blog-pass/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Notification // keyed by notification ID
}

// NewEventStore creates a new in-memory notification store.
func NewEventStore() *EventStore {
	return &EventStore{
		data: make(map[string]*domain.Notification),
	}
}

// Insert adds a new notification. Returns ErrDuplicateKey if the ID exists.
func (s *EventStore) Insert(_ context.Context, n *domain.Notification) error {
	if n == nil || n.ID == "" || !n.Kind.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[n.ID]; exists {
		return storage.ErrDuplicateKey
	}

	nCopy := *n
	s.data[n.ID] = &nCopy
	return nil
}

// GetByState retrieves notifications of one blog, ordered by slot ASC.
func (s *EventStore) GetByState(_ context.Context, state address.Pubkey) ([]*domain.Notification, error) {
	return s.filter(func(n *domain.Notification) bool {
		return n.State == state
	}), nil
}

// GetBySlotRange retrieves notifications within [start, end] (inclusive).
func (s *EventStore) GetBySlotRange(_ context.Context, start, end uint64) ([]*domain.Notification, error) {
	return s.filter(func(n *domain.Notification) bool {
		return n.Slot >= start && n.Slot <= end
	}), nil
}

// GetByKind retrieves all notifications of a kind.
func (s *EventStore) GetByKind(_ context.Context, kind domain.NotificationKind) ([]*domain.Notification, error) {
	return s.filter(func(n *domain.Notification) bool {
		return n.Kind == kind
	}), nil
}

func (s *EventStore) filter(keep func(*domain.Notification) bool) []*domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Notification
	for _, n := range s.data {
		if keep(n) {
			nCopy := *n
			result = append(result, &nCopy)
		}
	}

	// Sort by slot ASC, then ID for a stable order within one slot
	sort.Slice(result, func(i, j int) bool {
		if result[i].Slot != result[j].Slot {
			return result[i].Slot < result[j].Slot
		}
		return result[i].ID < result[j].ID
	})

	return result
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)
