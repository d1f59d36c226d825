package ledger

import (
	"fmt"
	"math"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/chain"
	"solana-blog-pass/internal/domain"
)

// Tx is a staged transaction. It implements chain.Runtime.
type Tx struct {
	l       *Ledger
	signers map[address.Pubkey]bool

	accounts overlay[account]
	mints    overlay[domain.Mint]
	holdings overlay[domain.TokenHolding]
	states   overlay[domain.BlogState]
}

func (l *Ledger) begin(signers []address.Pubkey) *Tx {
	tx := &Tx{
		l:        l,
		signers:  make(map[address.Pubkey]bool, len(signers)),
		accounts: newOverlay(l.accounts),
		mints:    newOverlay(l.mints),
		holdings: newOverlay(l.holdings),
		states:   newOverlay(l.states),
	}
	for _, s := range signers {
		tx.signers[s] = true
	}
	return tx
}

func (tx *Tx) commit() {
	tx.accounts.commit()
	tx.mints.commit()
	tx.holdings.commit()
	tx.states.commit()
}

// authorize checks that account may be debited or signed for: either it is a
// transaction signer (nil seeds) or seeds derive it under the program ID.
func (tx *Tx) authorize(account address.Pubkey, seeds address.Seeds) error {
	if seeds == nil {
		if !tx.signers[account] {
			return fmt.Errorf("%s: %w", account, chain.ErrMissingSigner)
		}
		return nil
	}

	derived, err := address.CreateProgramAddress(seeds, tx.l.programID)
	if err != nil {
		return fmt.Errorf("derive signer for %s: %w", account, err)
	}
	if derived != account {
		return fmt.Errorf("seeds derive %s, want %s: %w", derived, account, chain.ErrInvalidAuthority)
	}
	return nil
}

func (tx *Tx) credit(to address.Pubkey, lamports uint64) error {
	acc, _ := tx.accounts.get(to)
	if acc.Lamports > math.MaxUint64-lamports {
		return fmt.Errorf("credit %s: %w", to, chain.ErrArithmeticOverflow)
	}
	acc.Lamports += lamports
	tx.accounts.put(to, acc)
	return nil
}

func (tx *Tx) debit(from address.Pubkey, lamports uint64) error {
	acc, ok := tx.accounts.get(from)
	if !ok || acc.Lamports < lamports {
		return fmt.Errorf("debit %d from %s: %w", lamports, from, chain.ErrInsufficientFunds)
	}
	acc.Lamports -= lamports
	if acc.Size > 0 && acc.Lamports < tx.l.rent.MinimumBalance(acc.Size) {
		return fmt.Errorf("debit %d from %s: %w", lamports, from, chain.ErrInsufficientFundsForRent)
	}
	tx.accounts.put(from, acc)
	return nil
}

// Transfer moves lamports between accounts.
func (tx *Tx) Transfer(from, to address.Pubkey, amount uint64, signer address.Seeds) error {
	if err := tx.authorize(from, signer); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	if err := tx.debit(from, amount); err != nil {
		return err
	}
	return tx.credit(to, amount)
}

// Balance returns the staged lamport balance.
func (tx *Tx) Balance(addr address.Pubkey) uint64 {
	acc, _ := tx.accounts.get(addr)
	return acc.Lamports
}

// MinimumBalance returns the rent-exempt minimum for size bytes.
func (tx *Tx) MinimumBalance(size int) uint64 {
	return tx.l.rent.MinimumBalance(size)
}

// allocate creates a data account at addr funded by payer.
func (tx *Tx) allocate(addr, owner, payer address.Pubkey, size int) error {
	if acc, ok := tx.accounts.get(addr); ok && acc.Size > 0 {
		return fmt.Errorf("allocate %s: %w", addr, chain.ErrAccountInUse)
	}
	if err := tx.authorize(payer, nil); err != nil {
		return err
	}

	rent := tx.l.rent.MinimumBalance(size)
	acc, _ := tx.accounts.get(addr)
	if acc.Lamports < rent {
		if err := tx.debit(payer, rent-acc.Lamports); err != nil {
			return err
		}
		acc.Lamports = rent
	}
	acc.Owner = owner
	acc.Size = size
	tx.accounts.put(addr, acc)
	return nil
}

// CreateMint creates a mint owned by the token program.
func (tx *Tx) CreateMint(mint, authority address.Pubkey, mintSeeds address.Seeds, payer address.Pubkey) error {
	if err := tx.authorize(mint, mintSeeds); err != nil {
		return err
	}
	if err := tx.allocate(mint, address.TokenProgramID, payer, MintSize); err != nil {
		return err
	}
	tx.mints.put(mint, domain.Mint{
		Address:         mint,
		MintAuthority:   authority,
		FreezeAuthority: authority,
		Decimals:        0,
	})
	return nil
}

// loadMint returns the mint after checking that authority seeds derive want(m).
func (tx *Tx) loadMint(mint address.Pubkey, authority address.Seeds, want func(domain.Mint) address.Pubkey) (domain.Mint, error) {
	m, ok := tx.mints.get(mint)
	if !ok {
		return m, fmt.Errorf("mint %s: %w", mint, chain.ErrAccountNotFound)
	}
	if authority == nil {
		return m, fmt.Errorf("mint %s: %w", mint, chain.ErrInvalidAuthority)
	}
	if err := tx.authorize(want(m), authority); err != nil {
		return m, err
	}
	return m, nil
}

// holding returns the associated holding of owner for mint.
func (tx *Tx) holding(mint, owner address.Pubkey) (domain.TokenHolding, error) {
	ata, err := address.AssociatedTokenAddress(owner, mint)
	if err != nil {
		return domain.TokenHolding{}, fmt.Errorf("derive associated token address: %w", err)
	}
	h, ok := tx.holdings.get(ata)
	if !ok {
		return domain.TokenHolding{}, fmt.Errorf("holding %s: %w", ata, chain.ErrAccountNotFound)
	}
	return h, nil
}

// openHolding returns the associated holding of owner, creating it with rent paid by payer.
func (tx *Tx) openHolding(mint, owner, payer address.Pubkey) (domain.TokenHolding, error) {
	ata, err := address.AssociatedTokenAddress(owner, mint)
	if err != nil {
		return domain.TokenHolding{}, fmt.Errorf("derive associated token address: %w", err)
	}
	if h, ok := tx.holdings.get(ata); ok {
		return h, nil
	}
	if err := tx.allocate(ata, address.TokenProgramID, payer, TokenAccountSize); err != nil {
		return domain.TokenHolding{}, err
	}
	h := domain.TokenHolding{Address: ata, Mint: mint, Owner: owner}
	tx.holdings.put(ata, h)
	return h, nil
}

// MintOne mints one unit to holder's associated holding.
func (tx *Tx) MintOne(mint, holder address.Pubkey, authority address.Seeds) error {
	m, err := tx.loadMint(mint, authority, func(m domain.Mint) address.Pubkey { return m.MintAuthority })
	if err != nil {
		return err
	}
	h, err := tx.openHolding(mint, holder, holder)
	if err != nil {
		return err
	}
	if h.Frozen {
		return fmt.Errorf("mint to %s: %w", h.Address, chain.ErrAccountFrozen)
	}
	if m.Supply == math.MaxUint64 || h.Amount == math.MaxUint64 {
		return fmt.Errorf("mint to %s: %w", h.Address, chain.ErrArithmeticOverflow)
	}

	m.Supply++
	h.Amount++
	tx.mints.put(mint, m)
	tx.holdings.put(h.Address, h)
	return nil
}

func (tx *Tx) setFrozen(mint, holder address.Pubkey, authority address.Seeds, frozen bool) error {
	if _, err := tx.loadMint(mint, authority, func(m domain.Mint) address.Pubkey { return m.FreezeAuthority }); err != nil {
		return err
	}
	h, err := tx.holding(mint, holder)
	if err != nil {
		return err
	}
	if h.Frozen == frozen {
		return fmt.Errorf("holding %s frozen=%t: %w", h.Address, h.Frozen, chain.ErrInvalidAccountState)
	}
	h.Frozen = frozen
	tx.holdings.put(h.Address, h)
	return nil
}

// Freeze locks holder's associated holding.
func (tx *Tx) Freeze(mint, holder address.Pubkey, authority address.Seeds) error {
	return tx.setFrozen(mint, holder, authority, true)
}

// Thaw unlocks holder's associated holding.
func (tx *Tx) Thaw(mint, holder address.Pubkey, authority address.Seeds) error {
	return tx.setFrozen(mint, holder, authority, false)
}

// IsFrozen reports whether holder's associated holding is frozen.
func (tx *Tx) IsFrozen(mint, holder address.Pubkey) bool {
	h, err := tx.holding(mint, holder)
	if err != nil {
		return false
	}
	return h.Frozen
}

func (tx *Tx) transferToken(mint, owner, recipient address.Pubkey, amount uint64) error {
	if err := tx.authorize(owner, nil); err != nil {
		return err
	}
	if _, ok := tx.mints.get(mint); !ok {
		return fmt.Errorf("mint %s: %w", mint, chain.ErrAccountNotFound)
	}
	src, err := tx.holding(mint, owner)
	if err != nil {
		return err
	}
	if src.Frozen {
		return fmt.Errorf("transfer from %s: %w", src.Address, chain.ErrAccountFrozen)
	}
	if src.Amount < amount {
		return fmt.Errorf("transfer %d from %s: %w", amount, src.Address, chain.ErrInsufficientFunds)
	}
	if recipient == owner || amount == 0 {
		return nil
	}

	// Recipient holding rent is paid by the sender.
	dst, err := tx.openHolding(mint, recipient, owner)
	if err != nil {
		return err
	}
	if dst.Frozen {
		return fmt.Errorf("transfer to %s: %w", dst.Address, chain.ErrAccountFrozen)
	}
	if dst.Amount > math.MaxUint64-amount {
		return fmt.Errorf("transfer to %s: %w", dst.Address, chain.ErrArithmeticOverflow)
	}

	src.Amount -= amount
	dst.Amount += amount
	tx.holdings.put(src.Address, src)
	tx.holdings.put(dst.Address, dst)
	return nil
}

// CreateState allocates and stores a new state record.
func (tx *Tx) CreateState(state *domain.BlogState, seeds address.Seeds, payer address.Pubkey) error {
	if state == nil {
		return fmt.Errorf("create state: nil record")
	}
	if err := tx.authorize(state.Address, seeds); err != nil {
		return err
	}
	if err := tx.allocate(state.Address, tx.l.programID, payer, domain.BlogStateSpace); err != nil {
		return err
	}
	tx.putState(*state)
	return nil
}

// LoadState returns a copy of the staged state record.
func (tx *Tx) LoadState(addr address.Pubkey) (*domain.BlogState, error) {
	s, ok := tx.states.get(addr)
	if !ok {
		return nil, fmt.Errorf("state %s: %w", addr, chain.ErrAccountNotFound)
	}
	return &s, nil
}

// SaveState overwrites an existing state record.
func (tx *Tx) SaveState(state *domain.BlogState) error {
	if state == nil {
		return fmt.Errorf("save state: nil record")
	}
	if _, ok := tx.states.get(state.Address); !ok {
		return fmt.Errorf("state %s: %w", state.Address, chain.ErrAccountNotFound)
	}
	tx.putState(*state)
	return nil
}

// putState stamps the record with the slot this transaction commits at.
func (tx *Tx) putState(s domain.BlogState) {
	s.UpdatedSlot = tx.l.slot + 1
	tx.states.put(s.Address, s)
}

// Compile-time interface check.
var _ chain.Runtime = (*Tx)(nil)
