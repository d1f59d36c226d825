package program

import (
	"math"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/domain"
)

// authorize fails with ErrUnauthorized unless caller is the record's authority.
func authorize(caller address.Pubkey, s *domain.BlogState) error {
	if caller != s.Authority {
		return ErrUnauthorized
	}
	return nil
}

// validateURI enforces the non-empty and length bounds for the blog URI.
func validateURI(uri string) error {
	if uri == "" {
		return ErrEmptyURI
	}
	if len(uri) > domain.MaxURILength {
		return ErrURITooLong
	}
	return nil
}

// checkedIncrement returns n+1 or ErrSupplyOverflow.
func checkedIncrement(n uint64) (uint64, error) {
	if n == math.MaxUint64 {
		return 0, ErrSupplyOverflow
	}
	return n + 1, nil
}
