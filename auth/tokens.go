package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of a session token.
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrMissingSigningKey = errors.New("auth: missing signing key")
	ErrTokenSubject      = errors.New("auth: token subject is empty")

	// ErrTokenInvalid matches every verification failure below.
	ErrTokenInvalid   = errors.New("auth: invalid session token")
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrTokenInvalid)
	ErrTokenSignature = fmt.Errorf("%w: signature mismatch", ErrTokenInvalid)
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrTokenInvalid)
)

// IssuedToken is a freshly signed session token.
type IssuedToken struct {
	Raw       string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TTL returns the lifetime the token was signed with.
func (t IssuedToken) TTL() time.Duration {
	return t.ExpiresAt.Sub(t.IssuedAt)
}

type sessionClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens carrying a userId claim.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenIssuerOption configures TokenIssuer.
type TokenIssuerOption func(*TokenIssuer)

// WithTokenTTL overrides DefaultTokenTTL.
func WithTokenTTL(ttl time.Duration) TokenIssuerOption {
	return func(i *TokenIssuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithTokenClock sets a custom time source, mostly for tests.
func WithTokenClock(now func() time.Time) TokenIssuerOption {
	return func(i *TokenIssuer) {
		if now != nil {
			i.now = now
		}
	}
}

func NewTokenIssuer(secret []byte, opts ...TokenIssuerOption) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSigningKey
	}
	i := &TokenIssuer{
		secret: append([]byte(nil), secret...),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i, nil
}

func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for userID that expires after the configured TTL.
func (i *TokenIssuer) Issue(userID string) (IssuedToken, error) {
	if strings.TrimSpace(userID) == "" {
		return IssuedToken{}, ErrTokenSubject
	}
	// NumericDate has second precision.
	issuedAt := i.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(i.ttl)

	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return IssuedToken{
		Raw:       raw,
		UserID:    userID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks signature and expiry and returns the embedded claims.
// A token is valid while now is strictly before its expiry.
func (i *TokenIssuer) Verify(raw string) (SessionClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SessionClaims{}, ErrTokenMalformed
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return SessionClaims{}, classifyTokenError(err)
	}
	if !token.Valid {
		return SessionClaims{}, ErrTokenInvalid
	}
	if claims.UserID == "" {
		return SessionClaims{}, ErrTokenMalformed
	}

	out := SessionClaims{UserID: claims.UserID}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (i *TokenIssuer) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return i.secret, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}
