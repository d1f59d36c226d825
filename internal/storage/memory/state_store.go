package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/domain"
	"solana-blog-pass/internal/storage"
)

// StateStore is an in-memory implementation of storage.StateStore.
type StateStore struct {
	mu   sync.RWMutex
	data map[address.Pubkey]*domain.BlogState
}

// NewStateStore creates a new in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{
		data: make(map[address.Pubkey]*domain.BlogState),
	}
}

// Upsert stores the record unless a newer one is already present.
func (s *StateStore) Upsert(_ context.Context, st *domain.BlogState) error {
	if st == nil || st.Address.IsZero() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, exists := s.data[st.Address]; exists && cur.UpdatedSlot > st.UpdatedSlot {
		return nil
	}

	stCopy := *st
	s.data[st.Address] = &stCopy
	return nil
}

// GetByAddress retrieves a record by address. Returns ErrNotFound if not exists.
func (s *StateStore) GetByAddress(_ context.Context, addr address.Pubkey) (*domain.BlogState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.data[addr]
	if !exists {
		return nil, storage.ErrNotFound
	}

	stCopy := *st
	return &stCopy, nil
}

// GetByAuthority retrieves the record owned by authority. Returns ErrNotFound if not exists.
func (s *StateStore) GetByAuthority(_ context.Context, authority address.Pubkey) (*domain.BlogState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.data {
		if st.Authority == authority {
			stCopy := *st
			return &stCopy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetAll retrieves all records ordered by address.
func (s *StateStore) GetAll(_ context.Context) ([]*domain.BlogState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.BlogState, 0, len(s.data))
	for _, st := range s.data {
		stCopy := *st
		result = append(result, &stCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i].Address[:], result[j].Address[:]) < 0
	})

	return result, nil
}

// Compile-time interface check.
var _ storage.StateStore = (*StateStore)(nil)
