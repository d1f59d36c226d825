// Package chain defines the substrate contract consumed by the program:
// atomic transaction execution, value transfer, token issuance and rent.
package chain

import (
	"context"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/domain"
)

// Receipt describes a committed transaction.
type Receipt struct {
	Slot      uint64 // monotonically increasing per committed transaction
	Timestamp int64  // commit time, unix ms
}

// Executor runs fn as one atomic transaction signed by signers.
// If fn returns an error no write performed through the Runtime is observable.
type Executor interface {
	Execute(ctx context.Context, signers []address.Pubkey, fn func(rt Runtime) error) (Receipt, error)
}

// Runtime is the view of the substrate available inside a transaction.
//
// Authority arguments are seeds: the runtime re-derives the address from the
// seeds under the executing program ID, so only the program that owns a
// derived address can sign for it.
type Runtime interface {
	// Transfer moves lamports. A nil signer requires from to be a transaction signer.
	Transfer(from, to address.Pubkey, amount uint64, signer address.Seeds) error

	// Balance returns the lamport balance of an account (zero if absent).
	Balance(account address.Pubkey) uint64

	// MinimumBalance returns the rent-exempt minimum for an account of size bytes.
	MinimumBalance(size int) uint64

	// CreateMint creates a zero-decimal mint at the address derived from mintSeeds,
	// with mint and freeze authority set to authority. Rent is paid by payer.
	CreateMint(mint, authority address.Pubkey, mintSeeds address.Seeds, payer address.Pubkey) error

	// MintOne mints one unit of mint to the associated holding of holder,
	// creating the holding on demand (rent paid by holder).
	MintOne(mint, holder address.Pubkey, authority address.Seeds) error

	// Freeze locks the associated holding of holder.
	Freeze(mint, holder address.Pubkey, authority address.Seeds) error

	// Thaw unlocks the associated holding of holder.
	Thaw(mint, holder address.Pubkey, authority address.Seeds) error

	// IsFrozen reports whether the associated holding of holder is frozen.
	// A missing holding is not frozen.
	IsFrozen(mint, holder address.Pubkey) bool

	// CreateState allocates a new state account at state.Address, derived from
	// seeds, funded to its rent-exempt minimum by payer. Fails with
	// ErrAccountInUse if the address is already allocated.
	CreateState(state *domain.BlogState, seeds address.Seeds, payer address.Pubkey) error

	// LoadState returns a copy of the state record at addr.
	LoadState(addr address.Pubkey) (*domain.BlogState, error)

	// SaveState overwrites an existing state record.
	SaveState(state *domain.BlogState) error
}
