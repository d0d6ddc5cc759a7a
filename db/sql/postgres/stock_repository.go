package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"github.com/samber/oops"

	"github.com/Virag-Koradiya/unlisted-stocks/catalog"
)

const stockColumns = `id, stock_name, price, logo, created_at, updated_at`

// StockRepository persists catalog.Stock records inside PostgreSQL.
type StockRepository struct {
	db *sql.DB
}

func NewStockRepository(db *sql.DB) *StockRepository {
	return &StockRepository{db: db}
}

func (r *StockRepository) ListStocks(ctx context.Context) ([]catalog.Stock, error) {
	const query = `SELECT ` + stockColumns + ` FROM stocks ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, translateStockError(err, "list stocks")
	}
	defer rows.Close()

	stocks := []catalog.Stock{}
	for rows.Next() {
		stock, err := scanStock(rows)
		if err != nil {
			return nil, translateStockError(err, "scan stock")
		}
		stocks = append(stocks, stock)
	}
	if err := rows.Err(); err != nil {
		return nil, translateStockError(err, "list stocks")
	}
	return stocks, nil
}

func (r *StockRepository) CreateStock(ctx context.Context, stock catalog.Stock) error {
	const query = `INSERT INTO stocks (` + stockColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		stock.ID,
		stock.Name,
		stock.Price,
		stock.Logo,
		stock.CreatedAt,
		stock.UpdatedAt,
	)
	return translateStockError(err, "create stock")
}

// UpdateStock applies the non-nil patch fields in a single statement, so the
// uniqueness check and the write cannot interleave with another update.
func (r *StockRepository) UpdateStock(ctx context.Context, id string, patch catalog.StockPatch, updatedAt time.Time) (catalog.Stock, error) {
	const query = `UPDATE stocks SET
                       stock_name = COALESCE($2, stock_name),
                       price      = COALESCE($3, price),
                       logo       = COALESCE($4, logo),
                       updated_at = $5
                   WHERE id = $1
                   RETURNING ` + stockColumns
	row := r.db.QueryRowContext(ctx, query, id, patch.Name, patch.Price, patch.Logo, updatedAt)
	stock, err := scanStock(row)
	if err != nil {
		return catalog.Stock{}, translateStockError(err, "update stock")
	}
	return stock, nil
}

func (r *StockRepository) DeleteStock(ctx context.Context, id string) (catalog.Stock, error) {
	const query = `DELETE FROM stocks WHERE id = $1 RETURNING ` + stockColumns
	stock, err := scanStock(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return catalog.Stock{}, translateStockError(err, "delete stock")
	}
	return stock, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStock(row rowScanner) (catalog.Stock, error) {
	var stock catalog.Stock
	err := row.Scan(
		&stock.ID,
		&stock.Name,
		&stock.Price,
		&stock.Logo,
		&stock.CreatedAt,
		&stock.UpdatedAt,
	)
	return stock, err
}

func translateStockError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.ErrStockNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgerrcode.UniqueViolation:
			return catalog.ErrStockNameTaken
		case pgerrcode.InvalidTextRepresentation:
			return catalog.ErrStockNotFound
		case pgerrcode.CheckViolation:
			return catalog.ErrStockInvalidPrice
		}
	}
	return oops.Code("DB_QUERY_FAILED").With("operation", operation).Wrap(err)
}
