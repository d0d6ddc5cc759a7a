package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrUserEmailInUse     = errors.New("auth: email already in use")
	ErrUserInvalidInput   = errors.New("auth: invalid user service configuration")
	ErrMissingFields      = errors.New("auth: missing registration fields")
	ErrMissingCredentials = errors.New("auth: email and password are required")
	ErrInvalidPhoneNumber = errors.New("auth: phone number must be numeric")
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("auth: incorrect email or password")
)

// maxPhoneDigits follows E.164.
const maxPhoneDigits = 15

// User models the data persisted inside the user's chosen datastore.
type User struct {
	ID           string
	FullName     string
	Email        string
	PhoneNumber  int64
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the client-facing view of a user. It never carries the hash.
type PublicUser struct {
	ID          string `json:"_id"`
	FullName    string `json:"fullname"`
	Email       string `json:"email"`
	PhoneNumber int64  `json:"phoneNumber"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		FullName:    u.FullName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
	}
}

// NormalizeEmail trims and lowercases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParsePhoneNumber accepts digits with an optional leading plus sign.
func ParsePhoneNumber(raw string) (int64, error) {
	digits := strings.TrimPrefix(strings.TrimSpace(raw), "+")
	if digits == "" || len(digits) > maxPhoneDigits {
		return 0, ErrInvalidPhoneNumber
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, ErrInvalidPhoneNumber
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidPhoneNumber
	}
	return n, nil
}

// RegisterInput is the raw registration payload.
type RegisterInput struct {
	FullName    string
	Email       string
	PhoneNumber string
	Password    string
}

// Session is the outcome of a successful login.
type Session struct {
	User   User
	Token  IssuedToken
	Cookie *http.Cookie
}

// UserService orchestrates hashing, repository persistence, and session issuance.
type UserService struct {
	repo      UserRepository
	hasher    PasswordHasher
	tokens    TokenSigner
	sessions  *SessionCarrier
	now       func() time.Time
	newID     func() string
	dummyHash string
}

// UserServiceConfig wires dependencies for UserService.
type UserServiceConfig struct {
	Repository UserRepository
	Hasher     PasswordHasher
	Tokens     TokenSigner
	Sessions   *SessionCarrier
	Now        func() time.Time
	NewID      func() string
}

func NewUserService(ctx context.Context, cfg UserServiceConfig) (*UserService, error) {
	if cfg.Repository == nil || cfg.Hasher == nil || cfg.Tokens == nil {
		return nil, ErrUserInvalidInput
	}
	svc := &UserService{
		repo:     cfg.Repository,
		hasher:   cfg.Hasher,
		tokens:   cfg.Tokens,
		sessions: cfg.Sessions,
		now:      cfg.Now,
		newID:    cfg.NewID,
	}
	if svc.sessions == nil {
		svc.sessions = NewSessionCarrier(DevelopmentCookiePolicy())
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.newID == nil {
		svc.newID = uuid.NewString
	}

	// Unknown emails are checked against this hash so both login failure
	// paths cost one bcrypt comparison.
	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("auth: seed dummy hash: %w", err)
	}
	dummy, err := svc.hasher.Hash(ctx, []byte(hex.EncodeToString(seed)))
	if err != nil {
		return nil, fmt.Errorf("auth: build dummy hash: %w", err)
	}
	svc.dummyHash = dummy
	return svc, nil
}

// Sessions exposes the carrier used for cookies.
func (s *UserService) Sessions() *SessionCarrier {
	return s.sessions
}

// Register validates the input, hashes the password, and persists the user.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (User, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := NormalizeEmail(in.Email)
	if fullName == "" || email == "" || strings.TrimSpace(in.PhoneNumber) == "" || in.Password == "" {
		return User{}, ErrMissingFields
	}
	phone, err := ParsePhoneNumber(in.PhoneNumber)
	if err != nil {
		return User{}, err
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return User{}, ErrUserEmailInUse
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	hash, err := s.hasher.Hash(ctx, []byte(in.Password))
	if err != nil {
		return User{}, err
	}

	now := s.now().UTC()
	user := User{
		ID:           s.newID(),
		FullName:     fullName,
		Email:        email,
		PhoneNumber:  phone,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// The unique index still guards the race between lookup and insert.
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Login verifies credentials and issues a session. Unknown email and wrong
// password both return ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, ErrMissingCredentials
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		s.hasher.Verify(ctx, []byte(password), s.dummyHash)
		if err := contextError(ctx); err != nil {
			return Session{}, err
		}
		return Session{}, ErrInvalidCredentials
	case err != nil:
		return Session{}, err
	}

	if !s.hasher.Verify(ctx, []byte(password), user.PasswordHash) {
		if err := contextError(ctx); err != nil {
			return Session{}, err
		}
		return Session{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{
		User:   user,
		Token:  token,
		Cookie: s.sessions.Cookie(token),
	}, nil
}

// Logout returns the cookie that clears the session. It never fails and
// needs no prior session.
func (s *UserService) Logout() *http.Cookie {
	return s.sessions.ClearCookie()
}
