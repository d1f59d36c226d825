package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/chain"
	"solana-blog-pass/internal/domain"
)

// Request bodies.
type (
	InitializeRequest struct {
		PremiumFee uint64 `json:"premium_fee"`
		URI        string `json:"uri"`
	}
	UpdateFeeRequest struct {
		PremiumFee uint64 `json:"premium_fee"`
	}
	ModifyURIRequest struct {
		URI string `json:"uri"`
	}
	MintStandardRequest struct {
		Donation uint64 `json:"donation"`
	}
	MintPremiumRequest struct {
		Payment  uint64 `json:"payment"`
		TokenURI string `json:"token_uri"`
	}
	WithdrawRequest struct {
		Recipient *address.Pubkey `json:"recipient,omitempty"` // defaults to the signer
	}
	TransferRequest struct {
		Class     domain.TokenClass `json:"class"`
		Recipient address.Pubkey    `json:"recipient"`
		Amount    uint64            `json:"amount"`
	}
	AirdropRequest struct {
		Lamports uint64 `json:"lamports"`
	}
)

// AccountResponse is the lamport balance of an account.
type AccountResponse struct {
	Address  address.Pubkey `json:"address"`
	Lamports uint64         `json:"lamports"`
}

// HoldingsResponse lists a holder's standard and premium holdings of one blog.
// A nil entry means the holding does not exist.
type HoldingsResponse struct {
	Holder   address.Pubkey       `json:"holder"`
	Standard *domain.TokenHolding `json:"standard"`
	Premium  *domain.TokenHolding `json:"premium"`
}

// ReceiptResponse is returned by operations that do not touch blog state.
type ReceiptResponse struct {
	Receipt chain.Receipt `json:"receipt"`
}

var errMissingBody = errors.New("request body is required")

// decode reads an optional JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any, required bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			if required {
				return errMissingBody
			}
			return nil
		}
		return err
	}
	return nil
}

func pathKey(r *http.Request, name string) (address.Pubkey, error) {
	return address.Parse(mux.Vars(r)[name])
}

// signedOwner extracts the signer and the owner path parameter.
func signedOwner(w http.ResponseWriter, r *http.Request) (signer, owner address.Pubkey, ok bool) {
	signer, ok = Signer(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "unsigned request")
		return signer, owner, false
	}
	owner, err := pathKey(r, "owner")
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid owner address")
		return signer, owner, false
	}
	return signer, owner, true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	signer, ok := Signer(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "unsigned request")
		return
	}
	var req InitializeRequest
	if err := decode(r, &req, true); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.prog.Initialize(r.Context(), signer, req.PremiumFee, req.URI)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	signer, owner, ok := signedOwner(w, r)
	if !ok {
		return
	}
	res, err := s.prog.Pause(r.Context(), signer, owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request) {
	signer, owner, ok := signedOwner(w, r)
	if !ok {
		return
	}
	res, err := s.prog.Unpause(r.Context(), signer, owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUpdateFee(w http.ResponseWriter, r *http.Request) {
	signer, owner, ok := signedOwner(w, r)
	if !ok {
		return
	}
	var req UpdateFeeRequest
	if err := decode(r, &req, true); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.prog.UpdatePremiumFee(r.Context(), signer, owner, req.PremiumFee)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleModifyURI(w http.ResponseWriter, r *http.Request) {
	signer, owner, ok := signedOwner(w, r)
	if !ok {
		return
	}
	var req ModifyURIRequest
	if err := decode(r, &req, true); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.prog.ModifyURI(r.Context(), signer, owner, req.URI)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMintStandard(w http.ResponseWriter, r *http.Request) {
	signer, owner, ok := signedOwner(w, r)
	if !ok {
		return
	}
	var req MintStandardRequest
	if err := decode(r, &req, false); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.prog.MintStandard(r.Context(), signer, owner, req.Donation)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMintPremium(w http.ResponseWriter, r *http.Request) {
	signer, owner, ok := signedOwner(w, r)
	if !ok {
		return
	}
	var req MintPremiumRequest
	if err := decode(r, &req, true); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.prog.MintPremium(r.Context(), signer, owner, req.Payment, req.TokenURI)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	signer, owner, ok := signedOwner(w, r)
	if !ok {
		return
	}
	var req WithdrawRequest
	if err := decode(r, &req, false); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	recipient := signer
	if req.Recipient != nil {
		recipient = *req.Recipient
	}
	res, err := s.prog.Withdraw(r.Context(), signer, owner, recipient)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) blogState(owner address.Pubkey) (*domain.BlogState, error) {
	addr, _, err := s.prog.StateAddress(owner)
	if err != nil {
		return nil, err
	}
	return s.chain.State(addr)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	signer, owner, ok := signedOwner(w, r)
	if !ok {
		return
	}
	var req TransferRequest
	if err := decode(r, &req, true); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Class.IsValid() {
		writeErrorMessage(w, http.StatusBadRequest, "class must be standard or premium")
		return
	}
	st, err := s.blogState(owner)
	if err != nil {
		writeError(w, err)
		return
	}
	receipt, err := s.chain.TransferToken(r.Context(), st.Mint(req.Class), signer, req.Recipient, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReceiptResponse{Receipt: receipt})
}

func (s *Server) handleGetBlog(w http.ResponseWriter, r *http.Request) {
	owner, err := pathKey(r, "owner")
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid owner address")
		return
	}
	st, err := s.blogState(owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleGetHoldings(w http.ResponseWriter, r *http.Request) {
	owner, err := pathKey(r, "owner")
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid owner address")
		return
	}
	holder, err := pathKey(r, "holder")
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid holder address")
		return
	}
	st, err := s.blogState(owner)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := HoldingsResponse{Holder: holder}
	for _, class := range []domain.TokenClass{domain.TokenClassStandard, domain.TokenClassPremium} {
		h, err := s.chain.Holding(st.Mint(class), holder)
		if err != nil {
			if errors.Is(err, chain.ErrAccountNotFound) {
				continue
			}
			writeError(w, err)
			return
		}
		if class == domain.TokenClassPremium {
			resp.Premium = h
		} else {
			resp.Standard = h
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := pathKey(r, "address")
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid address")
		return
	}
	writeJSON(w, http.StatusOK, AccountResponse{Address: addr, Lamports: s.chain.Balance(addr)})
}

func (s *Server) handleAirdrop(w http.ResponseWriter, r *http.Request) {
	addr, err := pathKey(r, "address")
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid address")
		return
	}
	var req AirdropRequest
	if err := decode(r, &req, true); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Lamports == 0 || (s.faucetMaxLamports > 0 && req.Lamports > s.faucetMaxLamports) {
		writeErrorMessage(w, http.StatusBadRequest,
			"lamports must be between 1 and "+strconv.FormatUint(s.faucetMaxLamports, 10))
		return
	}
	if _, err := s.chain.Airdrop(r.Context(), addr, req.Lamports); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AccountResponse{Address: addr, Lamports: s.chain.Balance(addr)})
}

// handleListEvents returns notification history, filtered by state or kind,
// or by slot range when from/to are given.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	var (
		notes []*domain.Notification
		err   error
	)
	switch {
	case q.Get("state") != "":
		state, perr := address.Parse(q.Get("state"))
		if perr != nil {
			writeErrorMessage(w, http.StatusBadRequest, "invalid state address")
			return
		}
		notes, err = s.events.GetByState(ctx, state)
	case q.Get("kind") != "":
		kind := domain.NotificationKind(q.Get("kind"))
		if !kind.IsValid() {
			writeErrorMessage(w, http.StatusBadRequest, "unknown notification kind")
			return
		}
		notes, err = s.events.GetByKind(ctx, kind)
	default:
		from, ferr := parseSlot(q.Get("from"), 0)
		to, terr := parseSlot(q.Get("to"), ^uint64(0))
		if ferr != nil || terr != nil || from > to {
			writeErrorMessage(w, http.StatusBadRequest, "invalid slot range")
			return
		}
		notes, err = s.events.GetBySlotRange(ctx, from, to)
	}
	if err != nil {
		s.logger.WithError(err).Error("list events")
		writeError(w, err)
		return
	}
	if notes == nil {
		notes = []*domain.Notification{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func parseSlot(raw string, def uint64) (uint64, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}
