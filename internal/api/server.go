// Package api exposes the blog program over HTTP.
//
// Mutating routes are authenticated by an ed25519 signature of the request;
// the verified signer is the caller of the instruction.
package api

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/chain"
	"solana-blog-pass/internal/domain"
	"solana-blog-pass/internal/events"
	"solana-blog-pass/internal/observability"
	"solana-blog-pass/internal/program"
	"solana-blog-pass/internal/storage"
)

// Chain is the part of the substrate the API reads directly.
// *ledger.Ledger implements it.
type Chain interface {
	Airdrop(ctx context.Context, to address.Pubkey, lamports uint64) (chain.Receipt, error)
	TransferToken(ctx context.Context, mint, owner, recipient address.Pubkey, amount uint64) (chain.Receipt, error)
	Balance(addr address.Pubkey) uint64
	Holding(mint, owner address.Pubkey) (*domain.TokenHolding, error)
	State(addr address.Pubkey) (*domain.BlogState, error)
}

// Options configures Server.
type Options struct {
	Program *program.Program
	Chain   Chain
	Events  storage.EventStore // notification history; nil disables /v1/events
	Hub     *events.Hub        // nil disables /v1/events/stream
	Logger  logrus.FieldLogger

	FaucetEnabled     bool
	FaucetMaxLamports uint64

	MintPerSecond float64
	MintBurst     int

	// SignatureWindow bounds request timestamp drift; zero uses
	// DefaultSignatureWindow.
	SignatureWindow time.Duration
	Now             func() time.Time // nil uses time.Now
}

// Server serves the HTTP API.
type Server struct {
	prog     *program.Program
	chain    Chain
	events   storage.EventStore
	hub      *events.Hub
	logger   logrus.FieldLogger
	limiter  *RateLimiter
	verifier *Verifier

	faucetEnabled     bool
	faucetMaxLamports uint64
}

// NewServer creates a server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger = logger.WithField("component", "api")

	return &Server{
		prog:              opts.Program,
		chain:             opts.Chain,
		events:            opts.Events,
		hub:               opts.Hub,
		logger:            logger,
		limiter:           NewRateLimiter(opts.MintPerSecond, opts.MintBurst, logger),
		verifier:          NewVerifier(opts.SignatureWindow, opts.Now),
		faucetEnabled:     opts.FaucetEnabled,
		faucetMaxLamports: opts.FaucetMaxLamports,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/blogs/{owner}", s.handleGetBlog).Methods(http.MethodGet)
	v1.HandleFunc("/blogs/{owner}/holdings/{holder}", s.handleGetHoldings).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{address}", s.handleGetAccount).Methods(http.MethodGet)
	if s.events != nil {
		v1.HandleFunc("/events", s.handleListEvents).Methods(http.MethodGet)
	}
	if s.hub != nil {
		v1.Handle("/events/stream", s.hub).Methods(http.MethodGet)
	}
	if s.faucetEnabled {
		v1.HandleFunc("/accounts/{address}/airdrop", s.handleAirdrop).Methods(http.MethodPost)
	}

	signed := v1.NewRoute().Subrouter()
	signed.Use(s.verifier.Middleware)
	signed.HandleFunc("/blogs", s.handleInitialize).Methods(http.MethodPost)
	signed.HandleFunc("/blogs/{owner}/pause", s.handlePause).Methods(http.MethodPost)
	signed.HandleFunc("/blogs/{owner}/unpause", s.handleUnpause).Methods(http.MethodPost)
	signed.HandleFunc("/blogs/{owner}/fee", s.handleUpdateFee).Methods(http.MethodPost)
	signed.HandleFunc("/blogs/{owner}/uri", s.handleModifyURI).Methods(http.MethodPost)
	signed.HandleFunc("/blogs/{owner}/withdraw", s.handleWithdraw).Methods(http.MethodPost)
	signed.HandleFunc("/blogs/{owner}/transfer", s.handleTransfer).Methods(http.MethodPost)

	mint := signed.NewRoute().Subrouter()
	mint.Use(s.limiter.Handler)
	mint.HandleFunc("/blogs/{owner}/mint/standard", s.handleMintStandard).Methods(http.MethodPost)
	mint.HandleFunc("/blogs/{owner}/mint/premium", s.handleMintPremium).Methods(http.MethodPost)

	return r
}

// NewHTTPServer wraps the router in an *http.Server.
// There is no write timeout; event streams are long-lived.
func (s *Server) NewHTTPServer(addr string, readTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack is required by the websocket upgrader.
func (r *statusRecorder) Hijack() (c net.Conn, rw *bufio.ReadWriter, err error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

// HeaderRequestID carries the request ID; one is generated when absent.
const HeaderRequestID = "X-Request-ID"

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
		}).Debug("request")
	})
}
