package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sulaiman-00/FoodCart/internal/domain/order"
	"github.com/sulaiman-00/FoodCart/internal/domain/product"
)

func testOrder() (*order.Order, []product.Product) {
	o := &order.Order{
		ID:      "ord_1",
		OwnerID: "u1",
		Lines: []order.Line{
			{ProductID: "p1", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
			{ProductID: "p2", Quantity: 1, UnitPrice: decimal.RequireFromString("50.00")},
		},
		PaymentMethod: order.MethodOnline,
	}
	products := []product.Product{
		{ID: "p1", Name: "Apples"},
		{ID: "p2", Name: "Coffee"},
	}
	return o, products
}

func TestOpenSession(t *testing.T) {
	var gotForm url.Values
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		gotAuth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_99","url":"https://pay.example/cs_99"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, SecretKey: "sk_test"})
	o, products := testOrder()

	cs, err := c.OpenSession(context.Background(), o, products, ReturnURLs{
		Success: "https://shop.example/loader?next=my-orders",
		Cancel:  "https://shop.example/cart",
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_99", cs.ID)
	assert.Equal(t, "https://pay.example/cs_99", cs.URL)

	assert.Equal(t, "Bearer sk_test", gotAuth)
	assert.Equal(t, "ord_1", gotForm.Get("metadata[order_id]"))
	assert.Equal(t, "u1", gotForm.Get("metadata[owner_id]"))
	assert.Equal(t, "https://shop.example/loader?next=my-orders", gotForm.Get("success_url"))

	// Display rule: floor(unitPrice * 1.02) in minor units.
	// 10.00 -> floor(10.20) = 10 -> 1000; 50.00 -> floor(51.00) = 51 -> 5100.
	assert.Equal(t, "Apples", gotForm.Get("line_items[0][name]"))
	assert.Equal(t, "1000", gotForm.Get("line_items[0][unit_amount]"))
	assert.Equal(t, "2", gotForm.Get("line_items[0][quantity]"))
	assert.Equal(t, "5100", gotForm.Get("line_items[1][unit_amount]"))
}

func TestOpenSession_ProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, SecretKey: "sk_test"})
	o, products := testOrder()

	_, err := c.OpenSession(context.Background(), o, products, ReturnURLs{})

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
}

func TestOpenSession_BadResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":""}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	o, products := testOrder()

	_, err := c.OpenSession(context.Background(), o, products, ReturnURLs{})

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
}

func TestDisplayUnitMinor(t *testing.T) {
	assert.Equal(t, int64(1000), displayUnitMinor(decimal.RequireFromString("10.00")))
	assert.Equal(t, int64(5100), displayUnitMinor(decimal.RequireFromString("50.00")))
	assert.Equal(t, int64(100), displayUnitMinor(decimal.RequireFromString("0.99")))
	assert.Equal(t, int64(0), displayUnitMinor(decimal.Zero))
}
