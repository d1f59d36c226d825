package program

import "errors"

// Error is a program error. Program errors are terminal for the call.
type Error struct {
	Code uint32 `json:"code"`
	Name string `json:"name"`
	Msg  string `json:"message"`
}

func (e *Error) Error() string {
	return e.Name + ": " + e.Msg
}

// Program errors, numbered from 6000.
var (
	ErrUnauthorized       = &Error{Code: 6000, Name: "Unauthorized", Msg: "caller is not the blog authority"}
	ErrInvalidNewFee      = &Error{Code: 6001, Name: "InvalidNewFee", Msg: "premium fee must be non-zero and differ from the current fee"}
	ErrPaused             = &Error{Code: 6002, Name: "Paused", Msg: "minting is paused"}
	ErrLessThanPremiumFee = &Error{Code: 6003, Name: "LessThanPremiumFee", Msg: "payment is less than the premium fee"}
	ErrEmptyBalance       = &Error{Code: 6004, Name: "EmptyBalance", Msg: "no funds above the rent-exempt reserve"}
	ErrEmptyURI           = &Error{Code: 6005, Name: "EmptyUri", Msg: "uri must not be empty"}
	ErrURITooLong         = &Error{Code: 6006, Name: "UriTooLong", Msg: "uri exceeds 1024 bytes"}
	ErrSupplyOverflow     = &Error{Code: 6007, Name: "SupplyOverflow", Msg: "issued supply counter overflow"}
)

// AsError extracts a program error from err's chain.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
