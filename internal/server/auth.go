package server

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/dex-proxy/internal/storage"
)

// Signed requests carry an EIP-191 personal signature over SigningPayload.
// The recovered signer is the acting address of the request.
const (
	SignatureHeader = "X-Signature"
	TimestampHeader = "X-Timestamp"

	callerContextKey = "caller"
)

var (
	ErrMissingSignature  = errors.New("missing " + SignatureHeader + " or " + TimestampHeader + " header")
	ErrInvalidSignature  = errors.New("invalid request signature")
	ErrSignatureExpired  = errors.New("request timestamp outside the accepted window")
	ErrSignatureReplayed = errors.New("request signature already used")
)

// AuthConfig configures request signature checks
type AuthConfig struct {
	Window time.Duration // max distance between the signed timestamp and now
	Guard  storage.ReplayGuard
	Now    func() time.Time
}

// SigningPayload is the message a caller signs for one request.
func SigningPayload(method, uri string, timestamp int64, body []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n%s\n%d\n", method, uri, timestamp)
	buf.Write(body)
	return buf.Bytes()
}

// SignRequest returns the X-Signature value for a request.
func SignRequest(key *ecdsa.PrivateKey, method, uri string, timestamp int64, body []byte) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash(SigningPayload(method, uri, timestamp, body)), key)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(sig), nil
}

// recoverSigner accepts both recovery id forms (0/1 and 27/28).
func recoverSigner(payload []byte, sigHex string) (common.Address, error) {
	sig, err := hexutil.Decode(sigHex)
	if err != nil || len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrInvalidSignature
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash(payload), sig)
	if err != nil {
		return common.Address{}, ErrInvalidSignature
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Authenticate resolves the acting address from the request signature and
// stores it for the handlers. Each signer may use a signed request once.
func (h *Handlers) Authenticate(cfg AuthConfig) echo.MiddlewareFunc {
	if cfg.Window <= 0 {
		cfg.Window = 2 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Guard == nil {
		cfg.Guard = newMemoryReplayGuard(cfg.Now)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			sigHex := req.Header.Get(SignatureHeader)
			tsStr := req.Header.Get(TimestampHeader)
			if sigHex == "" || tsStr == "" {
				return h.err(c, http.StatusUnauthorized, ErrMissingSignature.Error(), nil)
			}
			ts, err := strconv.ParseInt(tsStr, 10, 64)
			if err != nil {
				return h.err(c, http.StatusUnauthorized, ErrSignatureExpired.Error(), nil)
			}
			skew := cfg.Now().Sub(time.Unix(ts, 0))
			if skew > cfg.Window || skew < -cfg.Window {
				return h.err(c, http.StatusUnauthorized, ErrSignatureExpired.Error(), nil)
			}

			var body []byte
			if req.Body != nil {
				body, err = io.ReadAll(req.Body)
				if err != nil {
					return h.err(c, http.StatusBadRequest, "unreadable body", nil)
				}
				req.Body = io.NopCloser(bytes.NewReader(body))
			}

			payload := SigningPayload(req.Method, req.URL.RequestURI(), ts, body)
			caller, err := recoverSigner(payload, sigHex)
			if err != nil {
				return h.err(c, http.StatusUnauthorized, err.Error(), nil)
			}

			key := caller.Hex() + ":" + crypto.Keccak256Hash(payload).Hex()
			fresh, err := cfg.Guard.Claim(req.Context(), key, 2*cfg.Window)
			if err != nil {
				h.Logger.WithError(err).Error("replay guard unavailable")
				return h.err(c, http.StatusServiceUnavailable, "signature check unavailable", nil)
			}
			if !fresh {
				return h.err(c, http.StatusUnauthorized, ErrSignatureReplayed.Error(), nil)
			}

			c.Set(callerContextKey, caller)
			return next(c)
		}
	}
}

// memoryReplayGuard is the single-process fallback when Redis is not
// configured.
type memoryReplayGuard struct {
	mu   sync.Mutex
	now  func() time.Time
	seen map[string]time.Time
}

func newMemoryReplayGuard(now func() time.Time) *memoryReplayGuard {
	return &memoryReplayGuard{now: now, seen: make(map[string]time.Time)}
}

func (g *memoryReplayGuard) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, exp := range g.seen {
		if now.After(exp) {
			delete(g.seen, k)
		}
	}
	if _, ok := g.seen[key]; ok {
		return false, nil
	}
	g.seen[key] = now.Add(ttl)
	return true, nil
}
