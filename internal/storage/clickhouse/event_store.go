package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/domain"
	"solana-blog-pass/internal/storage"
)

// EventStore implements storage.EventStore using ClickHouse.
type EventStore struct {
	conn *Conn
}

// NewEventStore creates a new EventStore.
func NewEventStore(conn *Conn) *EventStore {
	return &EventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

const notificationColumns = `id, kind, state, account, amount, token_uri, slot, emitted_at`

// Insert adds a new notification. Returns ErrDuplicateKey if the ID exists.
// MergeTree does not enforce uniqueness, so the ID is checked first.
func (s *EventStore) Insert(ctx context.Context, n *domain.Notification) (err error) {
	if n == nil || n.ID == "" || !n.Kind.IsValid() {
		return storage.ErrInvalidInput
	}
	defer track("insert_notification")(&err)

	exists, err := s.exists(ctx, n.ID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	err = s.conn.Exec(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		n.ID,
		string(n.Kind),
		n.State.String(),
		n.Account.String(),
		n.Amount,
		n.TokenURI,
		n.Slot,
		n.EmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *EventStore) exists(ctx context.Context, id string) (bool, error) {
	var count uint64
	if err := s.conn.QueryRow(ctx, `SELECT count() FROM notifications WHERE id = ?`, id).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByState retrieves notifications of one blog, ordered by slot ASC.
func (s *EventStore) GetByState(ctx context.Context, state address.Pubkey) (ns []*domain.Notification, err error) {
	defer track("get_notifications_by_state")(&err)

	rows, err := s.conn.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE state = ?
		ORDER BY slot ASC, id ASC
	`, state.String())
	if err != nil {
		return nil, fmt.Errorf("query by state: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// GetBySlotRange retrieves notifications within [start, end] (inclusive).
func (s *EventStore) GetBySlotRange(ctx context.Context, start, end uint64) (ns []*domain.Notification, err error) {
	defer track("get_notifications_by_slot_range")(&err)

	rows, err := s.conn.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE slot >= ? AND slot <= ?
		ORDER BY slot ASC, id ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by slot range: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// GetByKind retrieves all notifications of a kind.
func (s *EventStore) GetByKind(ctx context.Context, kind domain.NotificationKind) (ns []*domain.Notification, err error) {
	defer track("get_notifications_by_kind")(&err)

	rows, err := s.conn.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE kind = ?
		ORDER BY slot ASC, id ASC
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query by kind: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// scanNotifications scans rows into a slice of Notification.
func scanNotifications(rows driver.Rows) ([]*domain.Notification, error) {
	var result []*domain.Notification

	for rows.Next() {
		var (
			n              domain.Notification
			kind           string
			state, account string
		)
		if err := rows.Scan(&n.ID, &kind, &state, &account, &n.Amount, &n.TokenURI, &n.Slot, &n.EmittedAt); err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}

		var err error
		if n.State, err = address.Parse(state); err != nil {
			return nil, fmt.Errorf("parse state %q: %w", state, err)
		}
		if n.Account, err = address.Parse(account); err != nil {
			return nil, fmt.Errorf("parse account %q: %w", account, err)
		}
		n.Kind = domain.NotificationKind(kind)

		result = append(result, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}

	return result, nil
}
