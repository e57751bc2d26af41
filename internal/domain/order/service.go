package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/sulaiman-00/FoodCart/internal/domain/address"
	"github.com/sulaiman-00/FoodCart/internal/domain/cart"
	"github.com/sulaiman-00/FoodCart/internal/domain/product"
)

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	OwnerID   string
	Lines     []cart.Line
	AddressID string
	Method    PaymentMethod
}

// PlaceOrderResult holds the output of a successfully placed order. The
// resolved products are returned so the payment gateway can build provider
// line items without re-reading the catalog.
type PlaceOrderResult struct {
	Order    *Order
	Products []product.Product
}

// Service encapsulates cart-to-order translation: validation, pricing, and
// persistence. It never mutates the cart; cart clearing belongs to payment
// reconciliation.
type Service struct {
	catalog   product.Repository
	addresses address.Repository
	orders    Store
	now       func() time.Time
}

// NewService creates an order Service with the required collaborators.
func NewService(catalog product.Repository, addresses address.Repository, orders Store) *Service {
	return &Service{
		catalog:   catalog,
		addresses: addresses,
		orders:    orders,
		now:       time.Now,
	}
}

// PlaceOrder validates the request, prices the cart against the catalog,
// and persists the resulting order. Validation failures each map to a
// distinct error: ErrEmptyCart, InvalidQuantityError, ProductNotFoundError,
// address.ErrNotFound, ErrUnknownMethod. On any failure no order is
// written.
//
// The order is always created with paid=false. Offline orders are settled
// out of band and become listable through the store's visibility rule, not
// through the paid flag.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	if !req.Method.Valid() {
		return nil, ErrUnknownMethod
	}

	// Validate lines and collect product IDs for a single batch fetch.
	ids := make([]string, len(req.Lines))
	for i, l := range req.Lines {
		if l.ProductID == "" || l.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: l.ProductID}
		}
		ids[i] = l.ProductID
	}

	fetched, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	catalog := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		catalog[p.ID] = p
	}

	quote, err := PriceCart(req.Lines, catalog)
	if err != nil {
		return nil, err
	}

	if _, err := s.addresses.GetByID(ctx, req.AddressID); err != nil {
		if errors.Is(err, address.ErrNotFound) {
			return nil, address.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get address %s", req.AddressID)
	}

	o := &Order{
		ID:            uuid.New().String(),
		OwnerID:       req.OwnerID,
		Lines:         quote.Lines,
		Subtotal:      quote.Subtotal,
		Surcharge:     quote.Surcharge,
		Total:         quote.Total,
		AddressID:     req.AddressID,
		PaymentMethod: req.Method,
		Paid:          false,
		CreatedAt:     s.now(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	products := make([]product.Product, len(req.Lines))
	for i, l := range req.Lines {
		products[i] = catalog[l.ProductID]
	}

	return &PlaceOrderResult{
		Order:    o,
		Products: products,
	}, nil
}
