// Package memory provides process-local repositories for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Virag-Koradiya/unlisted-stocks/auth"
	"github.com/Virag-Koradiya/unlisted-stocks/catalog"
)

// Store implements auth.UserRepository and catalog.Repository. Email and
// stock name uniqueness are enforced under the same lock as the insert.
type Store struct {
	mu         sync.RWMutex
	users      map[string]auth.User
	emails     map[string]string
	stocks     map[string]catalog.Stock
	stockNames map[string]string
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]auth.User),
		emails:     make(map[string]string),
		stocks:     make(map[string]catalog.Stock),
		stockNames: make(map[string]string),
	}
}

func (s *Store) CreateUser(ctx context.Context, user auth.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := auth.NormalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[key]; exists {
		return auth.ErrUserEmailInUse
	}
	s.users[user.ID] = user
	s.emails[key] = user.ID
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (auth.User, error) {
	if err := ctx.Err(); err != nil {
		return auth.User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[auth.NormalizeEmail(email)]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return s.users[id], nil
}

// ListStocks returns stocks ordered by creation time, newest first.
func (s *Store) ListStocks(ctx context.Context) ([]catalog.Stock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]catalog.Stock, 0, len(s.stocks))
	for _, stock := range s.stocks {
		out = append(out, stock)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) CreateStock(ctx context.Context, stock catalog.Stock) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stockNames[stock.Name]; exists {
		return catalog.ErrStockNameTaken
	}
	s.stocks[stock.ID] = stock
	s.stockNames[stock.Name] = stock.ID
	return nil
}

func (s *Store) UpdateStock(ctx context.Context, id string, patch catalog.StockPatch, updatedAt time.Time) (catalog.Stock, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Stock{}, err
	}
	id = strings.ToLower(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	stock, ok := s.stocks[id]
	if !ok {
		return catalog.Stock{}, catalog.ErrStockNotFound
	}
	if patch.Name != nil && *patch.Name != stock.Name {
		if owner, exists := s.stockNames[*patch.Name]; exists && owner != id {
			return catalog.Stock{}, catalog.ErrStockNameTaken
		}
		delete(s.stockNames, stock.Name)
		stock.Name = *patch.Name
		s.stockNames[stock.Name] = id
	}
	if patch.Price != nil {
		stock.Price = *patch.Price
	}
	if patch.Logo != nil {
		stock.Logo = *patch.Logo
	}
	stock.UpdatedAt = updatedAt
	s.stocks[id] = stock
	return stock, nil
}

func (s *Store) DeleteStock(ctx context.Context, id string) (catalog.Stock, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Stock{}, err
	}
	id = strings.ToLower(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	stock, ok := s.stocks[id]
	if !ok {
		return catalog.Stock{}, catalog.ErrStockNotFound
	}
	delete(s.stocks, id)
	delete(s.stockNames, stock.Name)
	return stock, nil
}
