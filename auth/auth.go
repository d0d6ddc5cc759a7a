package auth

import (
	"context"
	"time"
)

// SessionClaims is the verified payload of a session token.
type SessionClaims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenSigner mints session tokens for an authenticated user.
type TokenSigner interface {
	Issue(userID string) (IssuedToken, error)
}

// TokenVerifier validates a raw session token.
type TokenVerifier interface {
	Verify(raw string) (SessionClaims, error)
}

// PasswordHasher manages password hashing and verification.
type PasswordHasher interface {
	Hash(ctx context.Context, plain []byte) (string, error)
	Verify(ctx context.Context, plain []byte, hash string) bool
}

// UserRepository abstracts persistence so callers can map to any table schema.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
