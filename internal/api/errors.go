package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"solana-blog-pass/internal/chain"
	"solana-blog-pass/internal/program"
	"solana-blog-pass/internal/storage"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    uint32 `json:"code,omitempty"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Message: msg}})
}

// writeError maps program, substrate and storage errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	if pe, ok := program.AsError(err); ok {
		writeJSON(w, programStatus(pe), errorBody{Error: errorDetail{
			Code:    pe.Code,
			Name:    pe.Name,
			Message: pe.Msg,
		}})
		return
	}

	status := http.StatusInternalServerError
	name := ""
	switch {
	case errors.Is(err, chain.ErrAccountNotFound), errors.Is(err, storage.ErrNotFound):
		status, name = http.StatusNotFound, "AccountNotFound"
	case errors.Is(err, chain.ErrAccountInUse):
		status, name = http.StatusConflict, "AccountInUse"
	case errors.Is(err, chain.ErrInsufficientFunds), errors.Is(err, chain.ErrInsufficientFundsForRent):
		status, name = http.StatusPaymentRequired, "InsufficientFunds"
	case errors.Is(err, chain.ErrAccountFrozen):
		status, name = http.StatusConflict, "AccountFrozen"
	case errors.Is(err, chain.ErrMissingSigner), errors.Is(err, chain.ErrInvalidAuthority):
		status, name = http.StatusForbidden, "InvalidAuthority"
	case errors.Is(err, chain.ErrInvalidAccountState), errors.Is(err, chain.ErrArithmeticOverflow):
		status, name = http.StatusConflict, "InvalidAccountState"
	case errors.Is(err, storage.ErrInvalidInput):
		status, name = http.StatusBadRequest, "InvalidInput"
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Name: name, Message: msg}})
}

func programStatus(pe *program.Error) int {
	switch pe {
	case program.ErrUnauthorized:
		return http.StatusForbidden
	case program.ErrPaused:
		return http.StatusConflict
	case program.ErrLessThanPremiumFee:
		return http.StatusPaymentRequired
	default:
		return http.StatusBadRequest
	}
}
