package program

import (
	"context"
	"fmt"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/domain"
)

// Withdraw moves everything above the record's rent-exempt reserve to
// recipient. Allowed while paused.
func (p *Program) Withdraw(ctx context.Context, caller, owner, recipient address.Pubkey) (*Result, error) {
	return p.run(ctx, InstrWithdraw, caller, owner, func(c *call) error {
		if err := authorize(c.caller, c.state); err != nil {
			return err
		}

		reserved := c.rt.MinimumBalance(domain.BlogStateSpace)
		balance := c.rt.Balance(c.state.Address)
		if balance <= reserved {
			return ErrEmptyBalance
		}
		amount := balance - reserved

		if err := c.rt.Transfer(c.state.Address, recipient, amount, c.seeds()); err != nil {
			return fmt.Errorf("transfer withdrawal: %w", err)
		}

		c.emit(domain.KindFundsWithdrawn, recipient, amount, "")
		return nil
	})
}
