package catalog

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service validates catalog changes before they reach the repository.
type Service struct {
	repo  Repository
	now   func() time.Time
	newID func() string
}

type ServiceOption func(*Service)

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func NewService(repo Repository, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("catalog: service requires a repository")
	}
	s := &Service{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// List returns every stock, newest first.
func (s *Service) List(ctx context.Context) ([]Stock, error) {
	stocks, err := s.repo.ListStocks(ctx)
	if err != nil {
		return nil, err
	}
	if stocks == nil {
		stocks = []Stock{}
	}
	return stocks, nil
}

// Add creates a listing. Name and price are required; logo defaults to empty.
func (s *Service) Add(ctx context.Context, in NewStock) (Stock, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Price == nil {
		return Stock{}, ErrStockMissingFields
	}
	if err := validatePrice(*in.Price); err != nil {
		return Stock{}, err
	}

	now := s.now().UTC()
	stock := Stock{
		ID:        s.newID(),
		Name:      name,
		Price:     *in.Price,
		Logo:      strings.TrimSpace(in.Logo),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateStock(ctx, stock); err != nil {
		return Stock{}, err
	}
	return stock, nil
}

// Update applies patch to the stock with id. Unknown or malformed ids
// report ErrStockNotFound.
func (s *Service) Update(ctx context.Context, id string, patch StockPatch) (Stock, error) {
	if patch.IsEmpty() {
		return Stock{}, ErrStockNoChanges
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return Stock{}, ErrStockNameEmpty
		}
		patch.Name = &name
	}
	if patch.Price != nil {
		if err := validatePrice(*patch.Price); err != nil {
			return Stock{}, err
		}
	}
	if patch.Logo != nil {
		logo := strings.TrimSpace(*patch.Logo)
		patch.Logo = &logo
	}
	if !validID(id) {
		return Stock{}, ErrStockNotFound
	}
	return s.repo.UpdateStock(ctx, id, patch, s.now().UTC())
}

// Delete removes the stock with id and returns it.
func (s *Service) Delete(ctx context.Context, id string) (Stock, error) {
	if !validID(id) {
		return Stock{}, ErrStockNotFound
	}
	return s.repo.DeleteStock(ctx, id)
}

func validatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return ErrStockInvalidPrice
	}
	return nil
}

// validID accepts only the canonical hyphenated form.
func validID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
