package address

import (
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"
)

// PDA limits enforced by the runtime.
const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

const pdaMarker = "ProgramDerivedAddress"

var (
	// ErrMaxSeedLengthExceeded is returned when a seed is longer than MaxSeedLength.
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	// ErrInvalidSeeds is returned when seeds hash to a point on the ed25519 curve.
	ErrInvalidSeeds = errors.New("provided seeds do not result in a valid address")

	// ErrNoViableBump is returned when no bump in [0, 255] yields an off-curve address.
	ErrNoViableBump = errors.New("unable to find a viable program address bump seed")
)

// Seeds is the ordered list of seeds (bump included) that proves authority
// over a program-derived address.
type Seeds [][]byte

// WithBump returns a copy of seeds with the bump appended as the final seed.
func (s Seeds) WithBump(bump uint8) Seeds {
	out := make(Seeds, 0, len(s)+1)
	out = append(out, s...)
	return append(out, []byte{bump})
}

// CreateProgramAddress derives an address from seeds and program ID.
// Fails with ErrInvalidSeeds if the result lies on the ed25519 curve.
func CreateProgramAddress(seeds Seeds, programID Pubkey) (Pubkey, error) {
	if len(seeds) > MaxSeeds {
		return Pubkey{}, ErrMaxSeedLengthExceeded
	}

	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return Pubkey{}, ErrMaxSeedLengthExceeded
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	var pk Pubkey
	copy(pk[:], h.Sum(nil))

	if IsOnCurve(pk) {
		return Pubkey{}, ErrInvalidSeeds
	}
	return pk, nil
}

// FindProgramAddress searches bumps from 255 down to 0 and returns the first
// off-curve address together with its bump.
func FindProgramAddress(seeds Seeds, programID Pubkey) (Pubkey, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		pk, err := CreateProgramAddress(seeds.WithBump(uint8(bump)), programID)
		if err == nil {
			return pk, uint8(bump), nil
		}
		if !errors.Is(err, ErrInvalidSeeds) {
			return Pubkey{}, 0, err
		}
	}
	return Pubkey{}, 0, ErrNoViableBump
}

// IsOnCurve reports whether the key decodes to a valid ed25519 point.
func IsOnCurve(pk Pubkey) bool {
	_, err := new(edwards25519.Point).SetBytes(pk[:])
	return err == nil
}

// AssociatedTokenAddress returns the canonical token account of owner for mint.
// Seeds: [owner, token_program_id, mint] under the associated token program.
func AssociatedTokenAddress(owner, mint Pubkey) (Pubkey, error) {
	pk, _, err := FindProgramAddress(
		Seeds{owner[:], TokenProgramID[:], mint[:]},
		AssociatedTokenAccountProgramID,
	)
	return pk, err
}
