// Package ledger is an in-memory substrate implementing chain.Executor.
// Transactions are serialized and staged; a failed transaction leaves no trace.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/chain"
	"solana-blog-pass/internal/domain"
)

// account is a lamport-holding account.
type account struct {
	Lamports uint64
	Owner    address.Pubkey // owning program
	Size     int            // allocated data length; zero for wallets
}

// Ledger holds all committed accounts.
type Ledger struct {
	mu sync.Mutex

	programID address.Pubkey
	rent      Rent
	now       func() time.Time

	accounts map[address.Pubkey]account
	mints    map[address.Pubkey]domain.Mint
	holdings map[address.Pubkey]domain.TokenHolding
	states   map[address.Pubkey]domain.BlogState

	slot uint64
}

// Option configures Ledger.
type Option func(*Ledger)

// WithRent sets rent parameters.
func WithRent(r Rent) Option {
	return func(l *Ledger) {
		l.rent = r
	}
}

// WithClock sets the commit timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New creates an empty ledger executing transactions for programID.
func New(programID address.Pubkey, opts ...Option) *Ledger {
	l := &Ledger{
		programID: programID,
		rent:      DefaultRent(),
		now:       time.Now,
		accounts:  make(map[address.Pubkey]account),
		mints:     make(map[address.Pubkey]domain.Mint),
		holdings:  make(map[address.Pubkey]domain.TokenHolding),
		states:    make(map[address.Pubkey]domain.BlogState),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ProgramID returns the program this ledger executes for.
func (l *Ledger) ProgramID() address.Pubkey {
	return l.programID
}

// Rent returns the rent parameters.
func (l *Ledger) Rent() Rent {
	return l.rent
}

// Execute runs fn atomically. Writes are committed only if fn returns nil.
func (l *Ledger) Execute(ctx context.Context, signers []address.Pubkey, fn func(rt chain.Runtime) error) (chain.Receipt, error) {
	return l.execute(ctx, signers, func(tx *Tx) error {
		return fn(tx)
	})
}

func (l *Ledger) execute(ctx context.Context, signers []address.Pubkey, fn func(tx *Tx) error) (chain.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return chain.Receipt{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := l.begin(signers)
	if err := fn(tx); err != nil {
		return chain.Receipt{}, err
	}

	l.slot++
	tx.commit()

	return chain.Receipt{
		Slot:      l.slot,
		Timestamp: l.now().UnixMilli(),
	}, nil
}

// Airdrop credits lamports to an account, creating it if needed.
func (l *Ledger) Airdrop(ctx context.Context, to address.Pubkey, lamports uint64) (chain.Receipt, error) {
	return l.execute(ctx, nil, func(tx *Tx) error {
		return tx.credit(to, lamports)
	})
}

// TransferToken moves amount units of mint from owner's holding to recipient's.
// The recipient holding is created on demand, paid by owner.
func (l *Ledger) TransferToken(ctx context.Context, mint, owner, recipient address.Pubkey, amount uint64) (chain.Receipt, error) {
	return l.execute(ctx, []address.Pubkey{owner}, func(tx *Tx) error {
		return tx.transferToken(mint, owner, recipient, amount)
	})
}

// Balance returns the committed lamport balance of an account.
func (l *Ledger) Balance(addr address.Pubkey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accounts[addr].Lamports
}

// State returns a copy of the committed state record at addr.
func (l *Ledger) State(addr address.Pubkey) (*domain.BlogState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.states[addr]
	if !ok {
		return nil, fmt.Errorf("state %s: %w", addr, chain.ErrAccountNotFound)
	}
	return &s, nil
}

// Mint returns a copy of the committed mint at addr.
func (l *Ledger) Mint(addr address.Pubkey) (*domain.Mint, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.mints[addr]
	if !ok {
		return nil, fmt.Errorf("mint %s: %w", addr, chain.ErrAccountNotFound)
	}
	return &m, nil
}

// Holding returns a copy of owner's committed associated holding for mint.
func (l *Ledger) Holding(mint, owner address.Pubkey) (*domain.TokenHolding, error) {
	ata, err := address.AssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("derive associated token address: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.holdings[ata]
	if !ok {
		return nil, fmt.Errorf("holding %s: %w", ata, chain.ErrAccountNotFound)
	}
	return &h, nil
}

// Slot returns the slot of the last committed transaction.
func (l *Ledger) Slot() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slot
}

// Compile-time interface check.
var _ chain.Executor = (*Ledger)(nil)
