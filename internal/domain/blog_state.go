package domain

import "solana-blog-pass/internal/address"

// MaxURILength is the maximum byte length of the blog URI and of premium token URIs.
const MaxURILength = 1024

// BlogStateSpace is the serialized account size of BlogState in bytes:
// discriminator(8) + authority(32) + premium_fee(8) + uri(4+1024) + paused(1)
// + standard_mint(32) + premium_mint(32) + total_standard(8) + total_premium(8)
// + bump(1) + standard_mint_bump(1) + premium_mint_bump(1).
const BlogStateSpace = 8 + 32 + 8 + (4 + MaxURILength) + 1 + 32 + 32 + 8 + 8 + 1 + 1 + 1

// PDA seed prefixes.
const (
	BlogSeed         = "blog"
	StandardMintSeed = "standard-mint"
	PremiumMintSeed  = "premium-mint"
)

// BlogState is the configuration and ledger record of one blog.
// One record exists per owner, at the address derived from [BlogSeed, authority].
type BlogState struct {
	Address             address.Pubkey `json:"address"`
	Authority           address.Pubkey `json:"authority"`
	PremiumFee          uint64         `json:"premium_fee"`
	URI                 string         `json:"uri"`
	Paused              bool           `json:"paused"`
	StandardMint        address.Pubkey `json:"standard_mint"`
	PremiumMint         address.Pubkey `json:"premium_mint"`
	TotalStandardMinted uint64         `json:"total_standard_minted"`
	TotalPremiumMinted  uint64         `json:"total_premium_minted"`

	// Derivation markers. No business meaning.
	Bump             uint8 `json:"bump"`
	StandardMintBump uint8 `json:"standard_mint_bump"`
	PremiumMintBump  uint8 `json:"premium_mint_bump"`

	UpdatedSlot uint64 `json:"updated_slot"` // slot of the last committed write
}

// StateSeeds returns the seeds (bump included) that sign for the state address.
func (s *BlogState) StateSeeds() address.Seeds {
	return address.Seeds{[]byte(BlogSeed), s.Authority[:]}.WithBump(s.Bump)
}

// TokenClass identifies one of the two token classes issued by a blog.
type TokenClass string

const (
	TokenClassStandard TokenClass = "standard"
	TokenClassPremium  TokenClass = "premium"
)

// String returns the string representation of TokenClass.
func (c TokenClass) String() string {
	return string(c)
}

// IsValid checks if the class is a valid value.
func (c TokenClass) IsValid() bool {
	return c == TokenClassStandard || c == TokenClassPremium
}

// Mint returns the mint address of the class for this blog.
func (s *BlogState) Mint(class TokenClass) address.Pubkey {
	if class == TokenClassPremium {
		return s.PremiumMint
	}
	return s.StandardMint
}
