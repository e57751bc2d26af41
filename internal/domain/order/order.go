package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/sulaiman-00/FoodCart/internal/domain/address"
)

// PaymentMethod selects how an order is settled.
type PaymentMethod string

const (
	// MethodOffline is cash-style settlement handled out of band. Offline
	// orders are listed immediately; their paid flag is never set.
	MethodOffline PaymentMethod = "OFFLINE"
	// MethodOnline is settlement through the hosted payment provider.
	// Online orders stay hidden from listings until reconciliation marks
	// them paid.
	MethodOnline PaymentMethod = "ONLINE"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == MethodOffline || m == MethodOnline
}

// Sentinel errors for order validation.
var (
	ErrEmptyCart     = errors.New("order lines required")
	ErrUnknownMethod = errors.New("unknown payment method")
	ErrNotFound      = errors.New("order not found")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line has a non-positive quantity or a
// missing product reference.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %q", e.ProductID)
}

// Line is a single order line. UnitPrice is snapshotted from the catalog at
// placement time and is immutable afterwards.
type Line struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Order is a durable record of a priced, addressed purchase intent.
// Total is computed once at creation and never recomputed. Paid starts
// false and transitions to true at most once, only for ONLINE orders, only
// through payment reconciliation.
type Order struct {
	ID            string
	OwnerID       string
	Lines         []Line
	Subtotal      decimal.Decimal
	Surcharge     decimal.Decimal
	Total         decimal.Decimal
	AddressID     string
	PaymentMethod PaymentMethod
	Paid          bool
	CreatedAt     time.Time
}

// LineView is an order line expanded with catalog display data.
type LineView struct {
	Line
	ProductName string
	Category    string
	ImageURL    string
}

// View is an order expanded for listing: lines carry product display data
// and the shipping address is resolved.
type View struct {
	ID            string
	OwnerID       string
	Lines         []LineView
	Subtotal      decimal.Decimal
	Surcharge     decimal.Decimal
	Total         decimal.Decimal
	Address       address.Address
	PaymentMethod PaymentMethod
	Paid          bool
	CreatedAt     time.Time
}

// Store defines persistence operations for orders.
//
// Both finders apply the listing visibility rule: an order is returned only
// when its payment method is OFFLINE or it has been paid. Pending unpaid
// online orders are invisible to owners and sellers alike until
// reconciliation completes. Results are sorted by creation time, newest
// first. This predicate is part of the durable contract consumed by
// order-listing clients.
type Store interface {
	Create(ctx context.Context, o *Order) error
	// SetPaid marks the order paid. It is an unconditional idempotent
	// write: marking an already-paid order is a no-op.
	SetPaid(ctx context.Context, orderID string) error
	FindByOwner(ctx context.Context, ownerID string) ([]View, error)
	FindAll(ctx context.Context) ([]View, error)
}
