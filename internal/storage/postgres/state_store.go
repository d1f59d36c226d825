package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/domain"
	"solana-blog-pass/internal/storage"
)

// StateStore implements storage.StateStore using PostgreSQL.
type StateStore struct {
	pool *Pool
}

// NewStateStore creates a new StateStore.
func NewStateStore(pool *Pool) *StateStore {
	return &StateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StateStore = (*StateStore)(nil)

const stateColumns = `
	address, authority, premium_fee::text, uri, paused, standard_mint, premium_mint,
	total_standard_minted::text, total_premium_minted::text,
	bump, standard_mint_bump, premium_mint_bump, updated_slot
`

// Upsert stores the record. Rows with a newer updated_slot are kept.
func (s *StateStore) Upsert(ctx context.Context, st *domain.BlogState) (err error) {
	if st == nil || st.Address.IsZero() {
		return storage.ErrInvalidInput
	}
	defer track("upsert_state")(&err)

	query := `
		INSERT INTO blog_states (
			address, authority, premium_fee, uri, paused, standard_mint, premium_mint,
			total_standard_minted, total_premium_minted,
			bump, standard_mint_bump, premium_mint_bump, updated_slot
		) VALUES ($1, $2, $3::text::numeric, $4, $5, $6, $7, $8::text::numeric, $9::text::numeric, $10, $11, $12, $13)
		ON CONFLICT (address) DO UPDATE SET
			premium_fee = EXCLUDED.premium_fee,
			uri = EXCLUDED.uri,
			paused = EXCLUDED.paused,
			total_standard_minted = EXCLUDED.total_standard_minted,
			total_premium_minted = EXCLUDED.total_premium_minted,
			updated_slot = EXCLUDED.updated_slot
		WHERE blog_states.updated_slot <= EXCLUDED.updated_slot
	`

	_, err = s.pool.Exec(ctx, query,
		st.Address.String(),
		st.Authority.String(),
		u64(st.PremiumFee),
		st.URI,
		st.Paused,
		st.StandardMint.String(),
		st.PremiumMint.String(),
		u64(st.TotalStandardMinted),
		u64(st.TotalPremiumMinted),
		int16(st.Bump),
		int16(st.StandardMintBump),
		int16(st.PremiumMintBump),
		int64(st.UpdatedSlot),
	)
	if err != nil {
		return fmt.Errorf("upsert blog state: %w", err)
	}
	return nil
}

// GetByAddress retrieves a record by state address. Returns ErrNotFound if not exists.
func (s *StateStore) GetByAddress(ctx context.Context, addr address.Pubkey) (*domain.BlogState, error) {
	return s.getOne(ctx, "get_state_by_address", "address", addr)
}

// GetByAuthority retrieves the record owned by authority. Returns ErrNotFound if not exists.
func (s *StateStore) GetByAuthority(ctx context.Context, authority address.Pubkey) (*domain.BlogState, error) {
	return s.getOne(ctx, "get_state_by_authority", "authority", authority)
}

func (s *StateStore) getOne(ctx context.Context, operation, column string, key address.Pubkey) (st *domain.BlogState, err error) {
	defer track(operation)(&err)

	query := `SELECT ` + stateColumns + ` FROM blog_states WHERE ` + column + ` = $1`

	st, err = scanState(s.pool.QueryRow(ctx, query, key.String()))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get blog state by %s: %w", column, err)
	}
	return st, nil
}

// GetAll retrieves all records ordered by address.
func (s *StateStore) GetAll(ctx context.Context) (states []*domain.BlogState, err error) {
	defer track("get_all_states")(&err)

	query := `SELECT ` + stateColumns + ` FROM blog_states ORDER BY address ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all blog states: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blog state row: %w", err)
		}
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blog state rows: %w", err)
	}
	return states, nil
}

// scanState scans a single row into a BlogState.
func scanState(row pgx.Row) (*domain.BlogState, error) {
	var (
		addr, authority, standardMint, premiumMint string
		fee, totalStandard, totalPremium           string
		bump, standardBump, premiumBump            int16
		updatedSlot                                int64
		st                                         domain.BlogState
	)

	if err := row.Scan(
		&addr, &authority, &fee, &st.URI, &st.Paused, &standardMint, &premiumMint,
		&totalStandard, &totalPremium,
		&bump, &standardBump, &premiumBump, &updatedSlot,
	); err != nil {
		return nil, err
	}

	var err error
	if st.Address, err = parseKey(addr); err != nil {
		return nil, err
	}
	if st.Authority, err = parseKey(authority); err != nil {
		return nil, err
	}
	if st.StandardMint, err = parseKey(standardMint); err != nil {
		return nil, err
	}
	if st.PremiumMint, err = parseKey(premiumMint); err != nil {
		return nil, err
	}
	if st.PremiumFee, err = parseU64(fee); err != nil {
		return nil, err
	}
	if st.TotalStandardMinted, err = parseU64(totalStandard); err != nil {
		return nil, err
	}
	if st.TotalPremiumMinted, err = parseU64(totalPremium); err != nil {
		return nil, err
	}

	st.Bump = uint8(bump)
	st.StandardMintBump = uint8(standardBump)
	st.PremiumMintBump = uint8(premiumBump)
	st.UpdatedSlot = uint64(updatedSlot)
	return &st, nil
}
