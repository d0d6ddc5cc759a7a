package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordEmpty   = errors.New("auth: password is empty")
	ErrPasswordTooLong = errors.New("auth: password too long")
)

const (
	DefaultBcryptCost = 10
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72
)

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// BcryptHasherOption configures BcryptHasher.
type BcryptHasherOption func(*BcryptHasher)

// WithBcryptCost sets the bcrypt cost factor. Out of range values are ignored.
func WithBcryptCost(cost int) BcryptHasherOption {
	return func(h *BcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// NewBcryptHasher creates a new bcrypt-based password hasher.
func NewBcryptHasher(opts ...BcryptHasherOption) *BcryptHasher {
	h := &BcryptHasher{cost: DefaultBcryptCost}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Cost reports the work factor used for new hashes.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash generates a salted bcrypt hash for the given password.
func (h *BcryptHasher) Hash(ctx context.Context, plain []byte) (string, error) {
	if err := contextError(ctx); err != nil {
		return "", err
	}
	if len(plain) == 0 {
		return "", ErrPasswordEmpty
	}
	if len(plain) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	buf := append([]byte(nil), plain...)
	defer clearBytes(buf)

	hashed, err := bcrypt.GenerateFromPassword(buf, h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: bcrypt hash failed: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plain matches hash. Malformed hashes never match.
func (h *BcryptHasher) Verify(ctx context.Context, plain []byte, hash string) bool {
	if err := contextError(ctx); err != nil {
		return false
	}
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), plain) == nil
}

// clearBytes zeros a byte slice.
func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
