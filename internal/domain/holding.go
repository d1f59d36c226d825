package domain

import "solana-blog-pass/internal/address"

// TokenHolding is a holder's associated token account for one mint.
// Frozen holdings reject transfers and mints until thawed.
type TokenHolding struct {
	Address address.Pubkey `json:"address"`
	Mint    address.Pubkey `json:"mint"`
	Owner   address.Pubkey `json:"owner"`
	Amount  uint64         `json:"amount"`
	Frozen  bool           `json:"frozen"`
}

// Mint is a token class on the ledger.
type Mint struct {
	Address         address.Pubkey `json:"address"`
	MintAuthority   address.Pubkey `json:"mint_authority"`
	FreezeAuthority address.Pubkey `json:"freeze_authority"`
	Decimals        uint8          `json:"decimals"`
	Supply          uint64         `json:"supply"`
}
