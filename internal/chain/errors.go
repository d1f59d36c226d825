package chain

import "errors"

// Substrate errors. They abort the transaction like program errors do.
var (
	// ErrAccountInUse is returned when creating an account at an occupied address.
	ErrAccountInUse = errors.New("account already in use")

	// ErrAccountNotFound is returned when reading an account that does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds is returned when a debit exceeds the account balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountFrozen is returned when minting to or transferring from a frozen holding.
	ErrAccountFrozen = errors.New("account is frozen")

	// ErrMissingSigner is returned when a debited account did not sign the transaction.
	ErrMissingSigner = errors.New("missing required signature")

	// ErrInvalidAuthority is returned when seeds do not derive the required authority.
	ErrInvalidAuthority = errors.New("invalid authority")

	// ErrInsufficientFundsForRent is returned when a debit would leave a data
	// account below its rent-exempt minimum.
	ErrInsufficientFundsForRent = errors.New("insufficient funds for rent")

	// ErrInvalidAccountState is returned when freezing a frozen holding or thawing
	// a holding that is not frozen.
	ErrInvalidAccountState = errors.New("invalid account state for operation")

	// ErrArithmeticOverflow is returned when a balance or supply would overflow.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
)
