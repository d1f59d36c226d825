package api

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mr-tron/base58"

	"solana-blog-pass/internal/address"
)

// Signature headers.
const (
	HeaderSigner    = "X-Signer"
	HeaderSignature = "X-Signature"
	HeaderTimestamp = "X-Timestamp" // unix milliseconds
	HeaderNonce     = "X-Nonce"
)

// DefaultSignatureWindow is how far a request timestamp may drift from the
// server clock in either direction.
const DefaultSignatureWindow = 30 * time.Second

const (
	maxBodyBytes    = 64 << 10
	maxNonceBytes   = 64
	replayCacheSize = 100_000
)

type ctxKey int

const signerKey ctxKey = iota

// SigningMessage returns the bytes a signer signs for a request:
// METHOD, path, timestamp and nonce on their own lines, then the body.
func SigningMessage(method, path string, timestamp int64, nonce string, body []byte) []byte {
	ts := strconv.FormatInt(timestamp, 10)
	msg := make([]byte, 0, len(method)+len(path)+len(ts)+len(nonce)+len(body)+4)
	msg = append(msg, method...)
	msg = append(msg, '\n')
	msg = append(msg, path...)
	msg = append(msg, '\n')
	msg = append(msg, ts...)
	msg = append(msg, '\n')
	msg = append(msg, nonce...)
	msg = append(msg, '\n')
	msg = append(msg, body...)
	return msg
}

// SignRequest signs req with key at the current time and a fresh nonce.
// The body, if any, is read and restored.
func SignRequest(req *http.Request, key ed25519.PrivateKey) error {
	return SignRequestAt(req, key, time.Now(), uuid.NewString())
}

// SignRequestAt signs req with an explicit timestamp and nonce.
func SignRequestAt(req *http.Request, key ed25519.PrivateKey, at time.Time, nonce string) error {
	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return err
		}
		body = b
		req.Body = io.NopCloser(bytes.NewReader(body))
	}
	ts := at.UnixMilli()
	pub := key.Public().(ed25519.PublicKey)
	sig := ed25519.Sign(key, SigningMessage(req.Method, req.URL.Path, ts, nonce, body))
	req.Header.Set(HeaderSigner, base58.Encode(pub))
	req.Header.Set(HeaderSignature, base58.Encode(sig))
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(HeaderNonce, nonce)
	return nil
}

// Verifier authenticates signed requests. Each signer nonce is accepted once;
// it is remembered until its timestamp has left the window.
type Verifier struct {
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	seen     *expirable.LRU[string, struct{}]
	capacity int
}

// NewVerifier creates a verifier. A non-positive window uses
// DefaultSignatureWindow; a nil now uses time.Now.
func NewVerifier(window time.Duration, now func() time.Time) *Verifier {
	return newVerifier(window, now, replayCacheSize)
}

func newVerifier(window time.Duration, now func() time.Time, capacity int) *Verifier {
	if window <= 0 {
		window = DefaultSignatureWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Verifier{
		window: window,
		now:    now,
		// A timestamp may lead the clock by one window, so it stays valid
		// for at most two.
		seen:     expirable.NewLRU[string, struct{}](capacity, nil, 2*window),
		capacity: capacity,
	}
}

// Middleware verifies the request signature and stores the signer in the context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signer, err := address.Parse(r.Header.Get(HeaderSigner))
		if err != nil {
			writeErrorMessage(w, http.StatusUnauthorized, "invalid or missing "+HeaderSigner)
			return
		}
		sig, err := base58.Decode(r.Header.Get(HeaderSignature))
		if err != nil || len(sig) != ed25519.SignatureSize {
			writeErrorMessage(w, http.StatusUnauthorized, "invalid or missing "+HeaderSignature)
			return
		}
		ts, err := strconv.ParseInt(r.Header.Get(HeaderTimestamp), 10, 64)
		if err != nil {
			writeErrorMessage(w, http.StatusUnauthorized, "invalid or missing "+HeaderTimestamp)
			return
		}
		nonce := r.Header.Get(HeaderNonce)
		if nonce == "" || len(nonce) > maxNonceBytes {
			writeErrorMessage(w, http.StatusUnauthorized, "invalid or missing "+HeaderNonce)
			return
		}
		if !v.fresh(ts) {
			writeErrorMessage(w, http.StatusUnauthorized, "request timestamp outside the accepted window")
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeErrorMessage(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		if !ed25519.Verify(ed25519.PublicKey(signer[:]), SigningMessage(r.Method, r.URL.Path, ts, nonce, body), sig) {
			writeErrorMessage(w, http.StatusUnauthorized, "signature verification failed")
			return
		}

		switch v.remember(signer.String() + ":" + nonce) {
		case rememberReplay:
			writeErrorMessage(w, http.StatusUnauthorized, "nonce already used")
			return
		case rememberFull:
			w.Header().Set("Retry-After", strconv.Itoa(int(v.window.Seconds())))
			writeErrorMessage(w, http.StatusServiceUnavailable, "too many signed requests in flight")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), signerKey, signer)))
	})
}

func (v *Verifier) fresh(ts int64) bool {
	drift := v.now().Sub(time.UnixMilli(ts))
	return drift <= v.window && drift >= -v.window
}

type rememberResult int

const (
	rememberOK rememberResult = iota
	rememberReplay
	rememberFull
)

// remember records key. The cache never evicts a live entry to make room,
// since an evicted entry could be replayed.
func (v *Verifier) remember(key string) rememberResult {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.seen.Contains(key) {
		return rememberReplay
	}
	if v.seen.Len() >= v.capacity {
		return rememberFull
	}
	v.seen.Add(key, struct{}{})
	return rememberOK
}

// Signer returns the verified signer of the request.
func Signer(ctx context.Context) (address.Pubkey, bool) {
	pk, ok := ctx.Value(signerKey).(address.Pubkey)
	return pk, ok
}
