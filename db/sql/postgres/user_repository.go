package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"github.com/samber/oops"

	"github.com/Virag-Koradiya/unlisted-stocks/auth"
)

// UserRepository persists auth.User records inside PostgreSQL.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository wraps an existing *sql.DB connection.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user auth.User) error {
	const query = `INSERT INTO users (id, fullname, email, phone_number, password_hash, created_at, updated_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.FullName,
		user.Email,
		user.PhoneNumber,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return translateUserError(err, "create user")
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (auth.User, error) {
	const query = `SELECT id, fullname, email, phone_number, password_hash, created_at, updated_at FROM users WHERE email = $1`
	var user auth.User
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.PhoneNumber,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.User{}, auth.ErrUserNotFound
		}
		return auth.User{}, translateUserError(err, "get user by email")
	}
	return user, nil
}

func translateUserError(err error, operation string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgerrcode.UniqueViolation:
			return auth.ErrUserEmailInUse
		case pgerrcode.InvalidTextRepresentation:
			return auth.ErrUserNotFound
		}
	}
	return oops.Code("DB_QUERY_FAILED").With("operation", operation).Wrap(err)
}
