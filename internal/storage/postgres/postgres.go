// Package postgres implements the state read model and the notifications
// log on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/observability"
	"solana-blog-pass/internal/storage"
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new Postgres connection pool.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// PostgreSQL error codes
const (
	pgErrUniqueViolation = "23505" // unique_violation
)

// isDuplicateKeyError checks if error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUniqueViolation
	}
	return false
}

// isNotFoundError checks if error indicates no rows found.
func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// track starts timing operation. The returned func records latency and the
// final error; use as `defer track("op")(&err)`.
func track(operation string) func(*error) {
	start := time.Now()
	return func(errp *error) {
		err := *errp
		if isNotFoundError(err) || errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrDuplicateKey) {
			err = nil
		}
		observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
	}
}

// u64 and parseU64 carry unsigned amounts through NUMERIC(20,0) columns as
// text; BIGINT cannot hold the upper half of the uint64 range.
func u64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseU64(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return v, nil
}

// slotBound converts a query bound to the BIGINT slot column. Bounds past
// math.MaxInt64 clamp so an open range stays open.
func slotBound(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

func parseKey(s string) (address.Pubkey, error) {
	pk, err := address.Parse(s)
	if err != nil {
		return address.Pubkey{}, fmt.Errorf("parse address %q: %w", s, err)
	}
	return pk, nil
}
