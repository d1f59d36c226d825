// Package address provides Solana-style 32-byte public keys and
// program-derived address (PDA) derivation.
package address

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
)

// PubkeyLength is the byte length of a public key.
const PubkeyLength = 32

// Pubkey is an ed25519 public key or a program-derived address.
type Pubkey [PubkeyLength]byte

// Well-known program IDs used by the ledger.
var (
	SystemProgramID                 = MustParse("11111111111111111111111111111111")
	TokenProgramID                  = MustParse("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenAccountProgramID = MustParse("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

// Parse decodes a base58 public key.
func Parse(s string) (Pubkey, error) {
	var pk Pubkey
	raw, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("decode pubkey %q: %w", s, err)
	}
	if len(raw) != PubkeyLength {
		return pk, fmt.Errorf("pubkey %q: invalid length %d", s, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(s string) Pubkey {
	pk, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// FromBytes copies a 32-byte slice into a Pubkey.
func FromBytes(b []byte) (Pubkey, error) {
	var pk Pubkey
	if len(b) != PubkeyLength {
		return pk, fmt.Errorf("pubkey: invalid length %d", len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// String returns the base58 encoding.
func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

// Bytes returns a copy of the key bytes.
func (p Pubkey) Bytes() []byte {
	b := make([]byte, PubkeyLength)
	copy(b, p[:])
	return b
}

// IsZero reports whether the key is all zeroes.
func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

// Equal reports whether two keys are identical.
func (p Pubkey) Equal(other Pubkey) bool {
	return bytes.Equal(p[:], other[:])
}

// MarshalText implements encoding.TextMarshaler.
func (p Pubkey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pubkey) UnmarshalText(text []byte) error {
	pk, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = pk
	return nil
}
