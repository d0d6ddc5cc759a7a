package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrNoCredentials  = errors.New("auth: user not authenticated")
	ErrSessionInvalid = errors.New("auth: invalid or expired session")
)

// Principal is the authenticated caller attached to a request context.
type Principal struct {
	UserID    string
	ExpiresAt time.Time
}

// Gate admits requests that carry a valid session token.
type Gate struct {
	verifier     TokenVerifier
	extractor    TokenExtractor
	errorHandler GateErrorHandler
}

type principalContextKey struct{}

func NewGate(verifier TokenVerifier, opts ...GateOption) (*Gate, error) {
	cfg, err := newGateConfig(verifier, opts...)
	if err != nil {
		return nil, err
	}
	return &Gate{
		verifier:     cfg.verifier,
		extractor:    cfg.extractor,
		errorHandler: cfg.errorHandler,
	}, nil
}

// Authorize resolves the caller of r. It returns ErrNoCredentials when no
// token is present and ErrSessionInvalid when the token fails verification.
// No user lookup happens here.
func (g *Gate) Authorize(r *http.Request) (Principal, error) {
	raw, err := g.extractor(r)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrNoCredentials, err)
	}
	claims, err := g.verifier.Verify(raw)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrSessionInvalid, err)
	}
	return Principal{UserID: claims.UserID, ExpiresAt: claims.ExpiresAt}, nil
}

func (g *Gate) Handler(next http.Handler) http.Handler {
	if g == nil {
		panic("auth: gate is nil")
	}
	if next == nil {
		next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := g.Authorize(r)
		if err != nil {
			g.errorHandler(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
