package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Virag-Koradiya/unlisted-stocks/auth"
	"github.com/Virag-Koradiya/unlisted-stocks/catalog"
)

func TestStoreUsers(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	user := auth.User{ID: uuid.NewString(), FullName: "Alice", Email: "a@x.io", PhoneNumber: 9999999999, PasswordHash: "h"}
	require.NoError(t, store.CreateUser(ctx, user))

	got, err := store.GetUserByEmail(ctx, "A@X.io")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	dup := user
	dup.ID = uuid.NewString()
	dup.Email = "A@x.io"
	assert.ErrorIs(t, store.CreateUser(ctx, dup), auth.ErrUserEmailInUse)

	_, err = store.GetUserByEmail(ctx, "nobody@x.io")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestStoreConcurrentRegistrationSameEmail(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.CreateUser(ctx, auth.User{ID: uuid.NewString(), Email: "race@x.io"})
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, auth.ErrUserEmailInUse)
	}
	assert.Equal(t, 1, ok)
}

func TestStoreStocksLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	older := catalog.Stock{ID: uuid.NewString(), Name: "NSDL", Price: 800, CreatedAt: base, UpdatedAt: base}
	newer := catalog.Stock{ID: uuid.NewString(), Name: "HDB", Price: 1200, CreatedAt: base.Add(time.Minute), UpdatedAt: base.Add(time.Minute)}
	require.NoError(t, store.CreateStock(ctx, older))
	require.NoError(t, store.CreateStock(ctx, newer))

	assert.ErrorIs(t, store.CreateStock(ctx, catalog.Stock{ID: uuid.NewString(), Name: "NSDL"}), catalog.ErrStockNameTaken)

	list, err := store.ListStocks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "HDB", list[0].Name)
	assert.Equal(t, "NSDL", list[1].Name)

	taken := "HDB"
	_, err = store.UpdateStock(ctx, older.ID, catalog.StockPatch{Name: &taken}, base)
	assert.ErrorIs(t, err, catalog.ErrStockNameTaken)

	same := "NSDL"
	price := 850.5
	updatedAt := base.Add(time.Hour)
	updated, err := store.UpdateStock(ctx, older.ID, catalog.StockPatch{Name: &same, Price: &price}, updatedAt)
	require.NoError(t, err)
	assert.Equal(t, 850.5, updated.Price)
	assert.Equal(t, updatedAt, updated.UpdatedAt)
	assert.Equal(t, base, updated.CreatedAt)

	renamed := "NSDL Ltd"
	_, err = store.UpdateStock(ctx, older.ID, catalog.StockPatch{Name: &renamed}, updatedAt)
	require.NoError(t, err)
	require.NoError(t, store.CreateStock(ctx, catalog.Stock{ID: uuid.NewString(), Name: "NSDL"}), "old name should be free after rename")

	deleted, err := store.DeleteStock(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "NSDL Ltd", deleted.Name)

	_, err = store.DeleteStock(ctx, older.ID)
	assert.ErrorIs(t, err, catalog.ErrStockNotFound)
	_, err = store.UpdateStock(ctx, older.ID, catalog.StockPatch{Price: &price}, updatedAt)
	assert.ErrorIs(t, err, catalog.ErrStockNotFound)
}

func TestStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewStore()

	assert.ErrorIs(t, store.CreateUser(ctx, auth.User{ID: "x", Email: "x@x.io"}), context.Canceled)
	_, err := store.ListStocks(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
