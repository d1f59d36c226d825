package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/domain"
	"solana-blog-pass/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

const notificationColumns = `id, kind, state, account, amount::text, token_uri, slot, emitted_at`

// Insert adds a new notification. Returns ErrDuplicateKey if the ID exists.
func (s *EventStore) Insert(ctx context.Context, n *domain.Notification) (err error) {
	if n == nil || n.ID == "" || !n.Kind.IsValid() {
		return storage.ErrInvalidInput
	}
	defer track("insert_notification")(&err)

	query := `
		INSERT INTO notifications (
			id, kind, state, account, amount, token_uri, slot, emitted_at
		) VALUES ($1, $2, $3, $4, $5::text::numeric, $6, $7, $8)
	`

	_, err = s.pool.Exec(ctx, query,
		n.ID,
		string(n.Kind),
		n.State.String(),
		n.Account.String(),
		u64(n.Amount),
		n.TokenURI,
		int64(n.Slot),
		n.EmittedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// GetByState retrieves notifications of one blog, ordered by slot ASC.
func (s *EventStore) GetByState(ctx context.Context, state address.Pubkey) (ns []*domain.Notification, err error) {
	defer track("get_notifications_by_state")(&err)

	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE state = $1
		ORDER BY slot ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, state.String())
	if err != nil {
		return nil, fmt.Errorf("get notifications by state: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// GetBySlotRange retrieves notifications within [start, end] (inclusive).
func (s *EventStore) GetBySlotRange(ctx context.Context, start, end uint64) (ns []*domain.Notification, err error) {
	defer track("get_notifications_by_slot_range")(&err)

	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE slot >= $1 AND slot <= $2
		ORDER BY slot ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, slotBound(start), slotBound(end))
	if err != nil {
		return nil, fmt.Errorf("get notifications by slot range: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// GetByKind retrieves all notifications of a kind.
func (s *EventStore) GetByKind(ctx context.Context, kind domain.NotificationKind) (ns []*domain.Notification, err error) {
	defer track("get_notifications_by_kind")(&err)

	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE kind = $1
		ORDER BY slot ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("get notifications by kind: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// scanNotifications scans multiple rows into a slice of Notification.
func scanNotifications(rows pgx.Rows) ([]*domain.Notification, error) {
	var result []*domain.Notification

	for rows.Next() {
		var (
			n              domain.Notification
			kind           string
			state, account string
			amount         string
			slot           int64
		)

		if err := rows.Scan(&n.ID, &kind, &state, &account, &amount, &n.TokenURI, &slot, &n.EmittedAt); err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}

		var err error
		if n.State, err = parseKey(state); err != nil {
			return nil, err
		}
		if n.Account, err = parseKey(account); err != nil {
			return nil, err
		}
		if n.Amount, err = parseU64(amount); err != nil {
			return nil, err
		}
		n.Kind = domain.NotificationKind(kind)
		n.Slot = uint64(slot)

		result = append(result, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}

	return result, nil
}
