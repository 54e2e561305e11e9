//go:build integration

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/orderdesk/orderdesk/internal/domain/order"
	"github.com/orderdesk/orderdesk/internal/domain/product"
	"github.com/orderdesk/orderdesk/internal/repository"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := testpostgres.Run(ctx,
		"postgres:16-alpine",
		testpostgres.WithDatabase("orderdesk"),
		testpostgres.WithUsername("test"),
		testpostgres.WithPassword("test"),
		testpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "start postgres container")

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := repository.NewPool(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, repository.RunMigrations(ctx, pool))
	return pool
}

func TestProductRepository_RoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	repo := repository.NewProductRepository(pool)
	ctx := context.Background()

	p := product.Product{
		ID:        "p1",
		Name:      "Widget",
		UnitPrice: decimal.RequireFromString("600.00"),
		Stock:     5,
	}
	require.NoError(t, repo.Upsert(ctx, p))

	products, err := repo.FetchProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Widget", products[0].Name)
	assert.True(t, p.UnitPrice.Equal(products[0].UnitPrice))
	assert.Equal(t, 5, products[0].Stock)

	// Upsert replaces in place.
	p.Stock = 2
	require.NoError(t, repo.Upsert(ctx, p))

	got, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)

	_, err = repo.GetByID(ctx, "ghost")
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestOrderRepository_CreateAndList(t *testing.T) {
	pool := setupTestDB(t)
	repo := repository.NewOrderRepository(pool)
	ctx := context.Background()

	o := &order.Order{
		CustomerName: "Carl",
		Email:        "a@b.com",
		Lines:        []order.OrderLine{{ProductID: "p1", Quantity: 2}},
		Total:        decimal.RequireFromString("1080.00"),
		OrderCode:    "Cb.com2025-06-15T12:00:00.000Z",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.Create(ctx, o))
	assert.NotEmpty(t, o.ID, "sink assigns the order ID")

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, o.ID, all[0].ID)
	assert.Equal(t, o.Lines, all[0].Lines)
	assert.True(t, o.Total.Equal(all[0].Total))
}

func TestOrderRepository_ListByEmailIsCaseInsensitive(t *testing.T) {
	pool := setupTestDB(t)
	repo := repository.NewOrderRepository(pool)
	ctx := context.Background()

	now := time.Now().UTC()
	for i, email := range []string{"A@B.com", "a@b.com", "other@x.com"} {
		o := &order.Order{
			CustomerName: "Carl",
			Email:        email,
			Lines:        []order.OrderLine{{ProductID: "p1", Quantity: 1}},
			Total:        decimal.RequireFromString("10.00"),
			OrderCode:    "code",
			CreatedAt:    now.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, o))
	}

	got, err := repo.ListByEmail(ctx, "a@b.COM")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
