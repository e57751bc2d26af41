//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/sulaiman-00/FoodCart/internal/domain/address"
	"github.com/sulaiman-00/FoodCart/internal/domain/cart"
	"github.com/sulaiman-00/FoodCart/internal/domain/order"
	"github.com/sulaiman-00/FoodCart/internal/domain/product"
	"github.com/sulaiman-00/FoodCart/internal/payment"
)

func TestRepositories_Integration(t *testing.T) {
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("foodcart"),
		postgres.WithUsername("foodcart"),
		postgres.WithPassword("foodcart"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	// Re-applying the DDL must be a no-op.
	require.NoError(t, RunMigrations(ctx, pool))

	seed := func(t *testing.T, sql string, args ...any) {
		t.Helper()
		_, err := pool.Exec(ctx, sql, args...)
		require.NoError(t, err)
	}

	seed(t, `INSERT INTO products (id, name, category, price, image_url)
		VALUES ('p1', 'Waffle', 'Waffle', 10.00, 'https://img.example/p1'),
		       ('p2', 'Coffee', 'Drinks', 50.00, '')`)
	seed(t, `INSERT INTO addresses (id, owner_id, street, city)
		VALUES ('addr1', 'u1', '1 Main St', 'Springfield')`)

	t.Run("products", func(t *testing.T) {
		repo := NewProductRepository(pool)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)

		p, err := repo.GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "Waffle", p.Name)
		assert.True(t, p.Price.Equal(decimal.RequireFromString("10.00")))

		_, err = repo.GetByID(ctx, "missing")
		require.ErrorIs(t, err, product.ErrNotFound)

		batch, err := repo.GetByIDs(ctx, []string{"p1", "p2", "ghost"})
		require.NoError(t, err)
		assert.Len(t, batch, 2, "unknown IDs are silently absent from the batch")
	})

	t.Run("addresses", func(t *testing.T) {
		repo := NewAddressRepository(pool)

		a, err := repo.GetByID(ctx, "addr1")
		require.NoError(t, err)
		assert.Equal(t, "Springfield", a.City)

		_, err = repo.GetByID(ctx, "nowhere")
		require.ErrorIs(t, err, address.ErrNotFound)
	})

	t.Run("carts", func(t *testing.T) {
		repo := NewCartRepository(pool)

		lines, err := repo.Get(ctx, "cart_owner")
		require.NoError(t, err)
		assert.Nil(t, lines, "missing cart reads as empty")

		want := []cart.Line{{ProductID: "p1", Quantity: 3}}
		require.NoError(t, repo.Replace(ctx, "cart_owner", want))

		lines, err = repo.Get(ctx, "cart_owner")
		require.NoError(t, err)
		assert.Equal(t, want, lines)

		require.NoError(t, repo.Clear(ctx, "cart_owner"))
		require.NoError(t, repo.Clear(ctx, "cart_owner"), "clearing twice is a no-op")
		require.NoError(t, repo.Clear(ctx, "never_existed"))

		lines, err = repo.Get(ctx, "cart_owner")
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("orders", func(t *testing.T) {
		store := NewOrderStore(pool)
		now := time.Now().UTC().Truncate(time.Microsecond)

		newOrder := func(id string, method order.PaymentMethod, createdAt time.Time) *order.Order {
			return &order.Order{
				ID:      id,
				OwnerID: "u1",
				Lines: []order.Line{
					{ProductID: "p1", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
				},
				Subtotal:      decimal.RequireFromString("20.00"),
				Surcharge:     decimal.Zero,
				Total:         decimal.RequireFromString("20.00"),
				AddressID:     "addr1",
				PaymentMethod: method,
				CreatedAt:     createdAt,
			}
		}

		require.NoError(t, store.Create(ctx, newOrder("ord_off", order.MethodOffline, now.Add(-time.Hour))))
		require.NoError(t, store.Create(ctx, newOrder("ord_on", order.MethodOnline, now)))

		// Offline orders list immediately; unpaid online orders stay hidden.
		views, err := store.FindByOwner(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, "ord_off", views[0].ID)
		assert.Equal(t, "Springfield", views[0].Address.City)
		require.Len(t, views[0].Lines, 1)
		assert.Equal(t, "Waffle", views[0].Lines[0].ProductName)
		assert.True(t, views[0].Lines[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))

		require.NoError(t, store.SetPaid(ctx, "ord_on"))
		require.NoError(t, store.SetPaid(ctx, "ord_on"), "re-marking paid is a no-op")
		require.ErrorIs(t, store.SetPaid(ctx, "ord_ghost"), order.ErrNotFound)

		views, err = store.FindByOwner(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, "ord_on", views[0].ID, "newest first")
		assert.True(t, views[0].Paid)

		all, err := store.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		other, err := store.FindByOwner(ctx, "somebody_else")
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("order view survives catalog removal", func(t *testing.T) {
		store := NewOrderStore(pool)

		o := &order.Order{
			ID:      "ord_gone",
			OwnerID: "u2",
			Lines: []order.Line{
				{ProductID: "p_gone", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
			},
			Subtotal:      decimal.RequireFromString("5.00"),
			Surcharge:     decimal.Zero,
			Total:         decimal.RequireFromString("5.00"),
			AddressID:     "addr1",
			PaymentMethod: order.MethodOffline,
			CreatedAt:     time.Now(),
		}
		require.NoError(t, store.Create(ctx, o))

		views, err := store.FindByOwner(ctx, "u2")
		require.NoError(t, err)
		require.Len(t, views, 1)
		require.Len(t, views[0].Lines, 1)
		assert.Empty(t, views[0].Lines[0].ProductName)
		assert.True(t, views[0].Lines[0].UnitPrice.Equal(decimal.RequireFromString("5.00")),
			"snapshot price is intact without catalog data")
	})

	t.Run("payment sessions", func(t *testing.T) {
		store := NewSessionStore(pool)

		require.NoError(t, store.Create(ctx, &payment.Session{
			ProviderSessionID: "cs_1",
			OrderID:           "ord_on",
			OwnerID:           "u1",
			Status:            payment.StatusOpen,
		}))

		sess, err := store.GetBySessionID(ctx, "cs_1")
		require.NoError(t, err)
		assert.Equal(t, "ord_on", sess.OrderID)
		assert.Equal(t, payment.StatusOpen, sess.Status)

		_, err = store.GetBySessionID(ctx, "cs_unknown")
		require.ErrorIs(t, err, payment.ErrSessionNotFound)

		require.NoError(t, store.SetStatus(ctx, "cs_1", payment.StatusCompleted))
		require.NoError(t, store.SetStatus(ctx, "cs_1", payment.StatusCompleted))
		require.ErrorIs(t, store.SetStatus(ctx, "cs_unknown", payment.StatusFailed),
			payment.ErrSessionNotFound)

		sess, err = store.GetBySessionID(ctx, "cs_1")
		require.NoError(t, err)
		assert.Equal(t, payment.StatusCompleted, sess.Status)
	})

	t.Run("api keys", func(t *testing.T) {
		repo := NewAPIKeyRepository(pool)

		seed(t, `INSERT INTO api_keys (id, key_hash, owner_id, name, scopes, active)
			VALUES ('k1', 'hash_active', 'u1', 'demo', '{customer,seller}', TRUE),
			       ('k2', 'hash_revoked', 'u1', 'old', '{customer}', FALSE)`)

		info, err := repo.FindByHash(ctx, "hash_active")
		require.NoError(t, err)
		assert.Equal(t, "u1", info.OwnerID)
		assert.ElementsMatch(t, []string{"customer", "seller"}, info.Scopes)

		_, err = repo.FindByHash(ctx, "hash_revoked")
		require.Error(t, err, "revoked keys do not resolve")

		_, err = repo.FindByHash(ctx, "hash_ghost")
		require.Error(t, err)
	})
}
