//go:build integration

package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Virag-Koradiya/unlisted-stocks/auth"
	"github.com/Virag-Koradiya/unlisted-stocks/catalog"
	testpg "github.com/Virag-Koradiya/unlisted-stocks/internal/testutil/postgrescontainer"
)

const testTimeout = 30 * time.Second

func TestMain(m *testing.M) {
	ctx := context.Background()
	if err := testpg.Setup(ctx); err != nil {
		panic(err)
	}
	code := m.Run()
	_ = testpg.Teardown(ctx)
	os.Exit(code)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	store, err := Connect(ctx, true, WithDSN(testpg.DSN()), WithConnectRetries(10, 500*time.Millisecond))
	require.NoError(t, err)
	_, err = store.DB.ExecContext(ctx, `TRUNCATE users, stocks`)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestIntegrationMigrationsAreIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, store.DB))
	version, err := SchemaVersion(ctx, store.DB)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestIntegrationUserRepository(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	user := auth.User{
		ID:           uuid.NewString(),
		FullName:     "Alice",
		Email:        "a@x.io",
		PhoneNumber:  9999999999,
		PasswordHash: "$2a$10$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, store.Users.CreateUser(ctx, user))

	got, err := store.Users.GetUserByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.PhoneNumber, got.PhoneNumber)
	assert.True(t, user.CreatedAt.Equal(got.CreatedAt))

	dup := user
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, store.Users.CreateUser(ctx, dup), auth.ErrUserEmailInUse)

	_, err = store.Users.GetUserByEmail(ctx, "nobody@x.io")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestIntegrationConcurrentRegistration(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Users.CreateUser(ctx, auth.User{
				ID:           uuid.NewString(),
				FullName:     "Racer",
				Email:        "race@x.io",
				PhoneNumber:  1,
				PasswordHash: "h",
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, auth.ErrUserEmailInUse)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, success)
}

func TestIntegrationStockRepository(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	older := catalog.Stock{ID: uuid.NewString(), Name: "NSDL", Price: 800, CreatedAt: base, UpdatedAt: base}
	newer := catalog.Stock{ID: uuid.NewString(), Name: "HDB", Price: 1200, Logo: "https://logo", CreatedAt: base.Add(time.Second), UpdatedAt: base.Add(time.Second)}
	require.NoError(t, store.Stocks.CreateStock(ctx, older))
	require.NoError(t, store.Stocks.CreateStock(ctx, newer))
	assert.ErrorIs(t, store.Stocks.CreateStock(ctx, catalog.Stock{ID: uuid.NewString(), Name: "NSDL", CreatedAt: base, UpdatedAt: base}), catalog.ErrStockNameTaken)

	list, err := store.Stocks.ListStocks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "HDB", list[0].Name)

	price := 850.0
	updated, err := store.Stocks.UpdateStock(ctx, older.ID, catalog.StockPatch{Price: &price}, base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 850.0, updated.Price)
	assert.Equal(t, "NSDL", updated.Name)

	taken := "HDB"
	_, err = store.Stocks.UpdateStock(ctx, older.ID, catalog.StockPatch{Name: &taken}, base)
	assert.ErrorIs(t, err, catalog.ErrStockNameTaken)

	_, err = store.Stocks.UpdateStock(ctx, "not-a-uuid", catalog.StockPatch{Price: &price}, base)
	assert.ErrorIs(t, err, catalog.ErrStockNotFound)

	deleted, err := store.Stocks.DeleteStock(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, older.ID, deleted.ID)

	_, err = store.Stocks.DeleteStock(ctx, older.ID)
	assert.ErrorIs(t, err, catalog.ErrStockNotFound)
}
