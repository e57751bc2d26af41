package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sulaiman-00/FoodCart/internal/domain/cart"
	"github.com/sulaiman-00/FoodCart/internal/domain/product"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func catalogOf(products ...product.Product) map[string]product.Product {
	m := make(map[string]product.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}

func TestSurchargeFor(t *testing.T) {
	tests := []struct {
		subtotal string
		want     string
	}{
		{"25.00", "0"},
		{"37.00", "0"},
		{"50", "1"},
		{"100", "2"},
		{"49.99", "0"},
		{"0", "0"},
	}
	for _, tt := range tests {
		got := SurchargeFor(dec(tt.subtotal))
		assert.True(t, dec(tt.want).Equal(got),
			"surcharge for %s: want %s, got %s", tt.subtotal, tt.want, got)
	}
}

func TestPriceCart(t *testing.T) {
	catalog := catalogOf(
		product.Product{ID: "a", Name: "Apples", Price: dec("10.00")},
		product.Product{ID: "b", Name: "Bread", Price: dec("5.00")},
	)

	q, err := PriceCart([]cart.Line{
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 1},
	}, catalog)

	require.NoError(t, err)
	assert.True(t, dec("25.00").Equal(q.Subtotal))
	assert.True(t, decimal.Zero.Equal(q.Surcharge))
	assert.True(t, dec("25.00").Equal(q.Total))

	require.Len(t, q.Lines, 2)
	assert.True(t, dec("10.00").Equal(q.Lines[0].UnitPrice))
	assert.Equal(t, 2, q.Lines[0].Quantity)
}

func TestPriceCart_SurchargeApplied(t *testing.T) {
	catalog := catalogOf(product.Product{ID: "a", Price: dec("50")})

	q, err := PriceCart([]cart.Line{{ProductID: "a", Quantity: 1}}, catalog)

	require.NoError(t, err)
	assert.True(t, dec("50").Equal(q.Subtotal))
	assert.True(t, dec("1").Equal(q.Surcharge))
	assert.True(t, dec("51").Equal(q.Total))
}

func TestPriceCart_ProductNotFound(t *testing.T) {
	catalog := catalogOf(product.Product{ID: "a", Price: dec("10")})

	_, err := PriceCart([]cart.Line{
		{ProductID: "a", Quantity: 1},
		{ProductID: "missing", Quantity: 1},
	}, catalog)

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "missing", pnfErr.ProductID)
}

func TestPriceCart_SnapshotIgnoresLaterCatalogChanges(t *testing.T) {
	catalog := catalogOf(product.Product{ID: "a", Price: dec("10.00")})

	q, err := PriceCart([]cart.Line{{ProductID: "a", Quantity: 1}}, catalog)
	require.NoError(t, err)

	// Mutating the snapshot after pricing must not affect the quote.
	p := catalog["a"]
	p.Price = dec("99.00")
	catalog["a"] = p

	assert.True(t, dec("10.00").Equal(q.Lines[0].UnitPrice))
	assert.True(t, dec("10.00").Equal(q.Total))
}
