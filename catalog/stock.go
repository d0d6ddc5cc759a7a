// Package catalog holds the unlisted stock listings and the rules for changing them.
package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	ErrStockNotFound      = errors.New("catalog: stock not found")
	ErrStockNameTaken     = errors.New("catalog: stock name already exists")
	ErrStockMissingFields = errors.New("catalog: stockName and price are required")
	ErrStockInvalidPrice  = errors.New("catalog: price must be a non-negative number")
	ErrStockNameEmpty     = errors.New("catalog: stockName cannot be empty")
	ErrStockNoChanges     = errors.New("catalog: no fields provided to update")
)

// Stock is a catalog listing.
type Stock struct {
	ID        string    `json:"_id"`
	Name      string    `json:"stockName"`
	Price     float64   `json:"price"`
	Logo      string    `json:"logo"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewStock is the input for Add. Price is a pointer so zero can be told
// apart from absent.
type NewStock struct {
	Name  string
	Price *float64
	Logo  string
}

// StockPatch carries a partial update. Nil fields are left unchanged.
type StockPatch struct {
	Name  *string
	Price *float64
	Logo  *string
}

// IsEmpty reports whether the patch changes nothing.
func (p StockPatch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Logo == nil
}

// Repository persists stocks. Implementations translate their uniqueness
// failures to ErrStockNameTaken and missing rows to ErrStockNotFound.
type Repository interface {
	ListStocks(ctx context.Context) ([]Stock, error)
	CreateStock(ctx context.Context, stock Stock) error
	UpdateStock(ctx context.Context, id string, patch StockPatch, updatedAt time.Time) (Stock, error)
	DeleteStock(ctx context.Context, id string) (Stock, error)
}
