package ledger

import (
	"context"
	"fmt"
)

// Account sizes of the token program.
const (
	MintSize         = 82
	TokenAccountSize = 165
)

// Rent computes rent-exempt minimum balances.
// MinimumBalance(size) = (Overhead + size) * LamportsPerByte.
type Rent struct {
	LamportsPerByte uint64 // lamports per byte-year times the exemption threshold
	Overhead        int    // per-account storage overhead in bytes
}

// DefaultRent matches Solana mainnet: 3480 lamports per byte-year, 2-year
// exemption threshold, 128 bytes of account overhead.
func DefaultRent() Rent {
	return Rent{
		LamportsPerByte: 3480 * 2,
		Overhead:        128,
	}
}

// MinimumBalance returns the rent-exempt minimum for an account of size bytes.
func (r Rent) MinimumBalance(size int) uint64 {
	return uint64(r.Overhead+size) * r.LamportsPerByte
}

// RentQuerier returns a cluster's rent-exempt minimum for a data length.
type RentQuerier interface {
	GetMinimumBalanceForRentExemption(ctx context.Context, dataLen int) (uint64, error)
}

// RentFromCluster derives rent parameters from two cluster samples.
func RentFromCluster(ctx context.Context, q RentQuerier) (Rent, error) {
	zero, err := q.GetMinimumBalanceForRentExemption(ctx, 0)
	if err != nil {
		return Rent{}, fmt.Errorf("query rent for 0 bytes: %w", err)
	}
	one, err := q.GetMinimumBalanceForRentExemption(ctx, 1)
	if err != nil {
		return Rent{}, fmt.Errorf("query rent for 1 byte: %w", err)
	}
	if one <= zero {
		return Rent{}, fmt.Errorf("non-increasing rent samples: %d, %d", zero, one)
	}

	perByte := one - zero
	return Rent{
		LamportsPerByte: perByte,
		Overhead:        int(zero / perByte),
	}, nil
}
