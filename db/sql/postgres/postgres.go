// Package postgres implements the user and stock repositories on PostgreSQL
// through lib/pq, with goose migrations embedded in the binary.
package postgres

import (
	"context"
	"database/sql"
)

// Store bundles the repositories sharing one connection pool.
type Store struct {
	DB     *sql.DB
	Users  *UserRepository
	Stocks *StockRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:     db,
		Users:  NewUserRepository(db),
		Stocks: NewStockRepository(db),
	}
}

// Connect opens the pool and, when migrate is set, brings the schema up to date.
func Connect(ctx context.Context, migrate bool, opts ...Option) (*Store, error) {
	db, err := Open(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return NewStore(db), nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}
