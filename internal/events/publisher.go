// Package events delivers committed notifications to observers:
// persistent stores and live websocket subscribers.
package events

import (
	"context"
	"errors"
	"fmt"

	"solana-blog-pass/internal/domain"
	"solana-blog-pass/internal/storage"
)

// Publisher accepts committed notifications.
type Publisher interface {
	Publish(ctx context.Context, n *domain.Notification) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, n *domain.Notification) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, n *domain.Notification) error {
	return f(ctx, n)
}

// Fanout publishes to every sink. All sinks are attempted; errors are joined.
type Fanout []Publisher

// Publish delivers n to all sinks.
func (f Fanout) Publish(ctx context.Context, n *domain.Notification) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StoreSink appends notifications to an EventStore.
type StoreSink struct {
	name  string
	store storage.EventStore
}

// NewStoreSink creates a sink named name (used in errors and metrics).
func NewStoreSink(name string, store storage.EventStore) *StoreSink {
	return &StoreSink{name: name, store: store}
}

// Name returns the sink name.
func (s *StoreSink) Name() string {
	return s.name
}

// Publish inserts n into the store.
func (s *StoreSink) Publish(ctx context.Context, n *domain.Notification) error {
	if err := s.store.Insert(ctx, n); err != nil {
		return fmt.Errorf("%s sink: %w", s.name, err)
	}
	return nil
}

// Compile-time interface checks.
var (
	_ Publisher = Fanout(nil)
	_ Publisher = (*StoreSink)(nil)
	_ Publisher = PublisherFunc(nil)
)
