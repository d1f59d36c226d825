package program

import (
	"context"
	"fmt"
	"time"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/chain"
	"solana-blog-pass/internal/domain"
)

// Initialize creates the blog record of authority with both mints.
// The record address is derived from authority, so a second call fails
// with chain.ErrAccountInUse.
func (p *Program) Initialize(ctx context.Context, authority address.Pubkey, premiumFee uint64, uri string) (*Result, error) {
	start := time.Now()

	c := &call{caller: authority}
	receipt, err := p.exec.Execute(ctx, []address.Pubkey{authority}, func(rt chain.Runtime) error {
		c.rt = rt

		if premiumFee == 0 {
			return ErrInvalidNewFee
		}
		if err := validateURI(uri); err != nil {
			return err
		}

		st, err := p.newState(authority, premiumFee, uri)
		if err != nil {
			return err
		}
		if err := rt.CreateState(st, st.StateSeeds(), authority); err != nil {
			return err
		}
		if err := rt.CreateMint(st.StandardMint, st.Address, mintSeeds(st, domain.TokenClassStandard), authority); err != nil {
			return fmt.Errorf("create standard mint: %w", err)
		}
		if err := rt.CreateMint(st.PremiumMint, st.Address, mintSeeds(st, domain.TokenClassPremium), authority); err != nil {
			return fmt.Errorf("create premium mint: %w", err)
		}

		c.state = st
		return nil
	})
	return p.finish(ctx, InstrInitialize, start, c, receipt, err)
}

// newState builds a fresh record with all derived addresses resolved.
func (p *Program) newState(authority address.Pubkey, premiumFee uint64, uri string) (*domain.BlogState, error) {
	addr, bump, err := p.StateAddress(authority)
	if err != nil {
		return nil, err
	}
	standard, standardBump, err := address.FindProgramAddress(address.Seeds{[]byte(domain.StandardMintSeed), addr[:]}, p.programID)
	if err != nil {
		return nil, fmt.Errorf("derive standard mint: %w", err)
	}
	premium, premiumBump, err := address.FindProgramAddress(address.Seeds{[]byte(domain.PremiumMintSeed), addr[:]}, p.programID)
	if err != nil {
		return nil, fmt.Errorf("derive premium mint: %w", err)
	}

	return &domain.BlogState{
		Address:          addr,
		Authority:        authority,
		PremiumFee:       premiumFee,
		URI:              uri,
		StandardMint:     standard,
		PremiumMint:      premium,
		Bump:             bump,
		StandardMintBump: standardBump,
		PremiumMintBump:  premiumBump,
	}, nil
}

func mintSeeds(st *domain.BlogState, class domain.TokenClass) address.Seeds {
	if class == domain.TokenClassPremium {
		return address.Seeds{[]byte(domain.PremiumMintSeed), st.Address[:]}.WithBump(st.PremiumMintBump)
	}
	return address.Seeds{[]byte(domain.StandardMintSeed), st.Address[:]}.WithBump(st.StandardMintBump)
}

// Pause stops both mint instructions. Pausing a paused blog succeeds.
func (p *Program) Pause(ctx context.Context, caller, owner address.Pubkey) (*Result, error) {
	return p.setPaused(ctx, InstrPause, caller, owner, true)
}

// Unpause resumes minting. Unpausing an active blog succeeds.
func (p *Program) Unpause(ctx context.Context, caller, owner address.Pubkey) (*Result, error) {
	return p.setPaused(ctx, InstrUnpause, caller, owner, false)
}

func (p *Program) setPaused(ctx context.Context, instr string, caller, owner address.Pubkey, paused bool) (*Result, error) {
	return p.run(ctx, instr, caller, owner, func(c *call) error {
		if err := authorize(c.caller, c.state); err != nil {
			return err
		}
		c.state.Paused = paused
		return nil
	})
}

// UpdatePremiumFee replaces the premium fee. The new fee must be non-zero
// and differ from the current one.
func (p *Program) UpdatePremiumFee(ctx context.Context, caller, owner address.Pubkey, newFee uint64) (*Result, error) {
	return p.run(ctx, InstrUpdatePremiumFee, caller, owner, func(c *call) error {
		if err := authorize(c.caller, c.state); err != nil {
			return err
		}
		if newFee == 0 || newFee == c.state.PremiumFee {
			return ErrInvalidNewFee
		}
		c.state.PremiumFee = newFee
		return nil
	})
}

// ModifyURI replaces the blog metadata URI.
func (p *Program) ModifyURI(ctx context.Context, caller, owner address.Pubkey, newURI string) (*Result, error) {
	return p.run(ctx, InstrModifyURI, caller, owner, func(c *call) error {
		if err := validateURI(newURI); err != nil {
			return err
		}
		if err := authorize(c.caller, c.state); err != nil {
			return err
		}
		c.state.URI = newURI
		return nil
	})
}
