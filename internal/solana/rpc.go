// Package solana is a JSON-RPC client for a Solana cluster, used to calibrate
// the simulated ledger's rent.
package solana

import "context"

// RPCClient is the subset of the cluster RPC the service uses.
type RPCClient interface {
	// GetMinimumBalanceForRentExemption returns the rent-exempt minimum for dataLen bytes.
	GetMinimumBalanceForRentExemption(ctx context.Context, dataLen int) (uint64, error)

	// GetSlot returns the current slot.
	GetSlot(ctx context.Context) (uint64, error)
}
