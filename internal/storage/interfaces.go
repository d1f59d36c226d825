package storage

import (
	"context"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/domain"
)

// StateStore is the read model of committed blog state records.
type StateStore interface {
	// Upsert stores the record keyed by its address. A record with an older
	// UpdatedSlot never overwrites a newer one.
	Upsert(ctx context.Context, s *domain.BlogState) error

	// GetByAddress retrieves a record by state address. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, addr address.Pubkey) (*domain.BlogState, error)

	// GetByAuthority retrieves the record owned by authority. Returns ErrNotFound if not exists.
	GetByAuthority(ctx context.Context, authority address.Pubkey) (*domain.BlogState, error)

	// GetAll retrieves all records ordered by address.
	GetAll(ctx context.Context) ([]*domain.BlogState, error)
}

// EventStore provides access to the append-only notifications log.
type EventStore interface {
	// Insert adds a notification. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, n *domain.Notification) error

	// GetByState retrieves notifications of one blog, ordered by slot ASC.
	GetByState(ctx context.Context, state address.Pubkey) ([]*domain.Notification, error)

	// GetBySlotRange retrieves notifications within [start, end] (inclusive), ordered by slot ASC.
	GetBySlotRange(ctx context.Context, start, end uint64) ([]*domain.Notification, error)

	// GetByKind retrieves all notifications of a kind, ordered by slot ASC.
	GetByKind(ctx context.Context, kind domain.NotificationKind) ([]*domain.Notification, error)
}
