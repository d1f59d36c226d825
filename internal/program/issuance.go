package program

import (
	"context"
	"fmt"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/domain"
)

// MintStandard mints one standard token to caller. A non-zero donation is
// transferred to the blog record first and announced as fundsReceived.
func (p *Program) MintStandard(ctx context.Context, caller, owner address.Pubkey, donation uint64) (*Result, error) {
	return p.run(ctx, InstrMintStandard, caller, owner, func(c *call) error {
		if c.state.Paused {
			return ErrPaused
		}
		total, err := checkedIncrement(c.state.TotalStandardMinted)
		if err != nil {
			return err
		}

		if donation > 0 {
			if err := c.rt.Transfer(c.caller, c.state.Address, donation, nil); err != nil {
				return fmt.Errorf("transfer donation: %w", err)
			}
			c.emit(domain.KindFundsReceived, c.caller, donation, "")
		}

		if err := c.rt.MintOne(c.state.StandardMint, c.caller, c.seeds()); err != nil {
			return fmt.Errorf("mint standard: %w", err)
		}

		c.state.TotalStandardMinted = total
		return nil
	})
}

// MintPremium takes payment for a premium token and mints it to caller.
// The holding is thawed if needed and always left frozen, so premium
// tokens cannot move. tokenURI is announced but not stored.
func (p *Program) MintPremium(ctx context.Context, caller, owner address.Pubkey, payment uint64, tokenURI string) (*Result, error) {
	return p.run(ctx, InstrMintPremium, caller, owner, func(c *call) error {
		if c.state.Paused {
			return ErrPaused
		}
		if payment < c.state.PremiumFee {
			return ErrLessThanPremiumFee
		}
		if len(tokenURI) > domain.MaxURILength {
			return ErrURITooLong
		}
		total, err := checkedIncrement(c.state.TotalPremiumMinted)
		if err != nil {
			return err
		}

		if err := c.rt.Transfer(c.caller, c.state.Address, payment, nil); err != nil {
			return fmt.Errorf("transfer payment: %w", err)
		}

		mint, seeds := c.state.PremiumMint, c.seeds()
		if c.rt.IsFrozen(mint, c.caller) {
			if err := c.rt.Thaw(mint, c.caller, seeds); err != nil {
				return fmt.Errorf("thaw premium holding: %w", err)
			}
		}
		if err := c.rt.MintOne(mint, c.caller, seeds); err != nil {
			return fmt.Errorf("mint premium: %w", err)
		}
		if err := c.rt.Freeze(mint, c.caller, seeds); err != nil {
			return fmt.Errorf("freeze premium holding: %w", err)
		}

		c.state.TotalPremiumMinted = total
		c.emit(domain.KindPremiumReceived, c.caller, payment, tokenURI)
		return nil
	})
}
