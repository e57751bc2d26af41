// Package payment defines the payment-provider collaborator surface: hosted
// checkout sessions, webhook signature verification, and the event envelope
// delivered back by the provider.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"

	"github.com/sulaiman-00/FoodCart/internal/domain/order"
	"github.com/sulaiman-00/FoodCart/internal/domain/product"
)

// SessionStatus tracks the local view of a provider checkout session.
type SessionStatus string

const (
	StatusOpen      SessionStatus = "OPEN"
	StatusCompleted SessionStatus = "COMPLETED"
	StatusFailed    SessionStatus = "FAILED"
)

// ErrSessionNotFound is returned when no local session row matches a
// provider session reference.
var ErrSessionNotFound = errors.New("payment session not found")

// Session correlates a provider checkout session back to exactly one order.
// The provider session id together with this row is the sole mechanism by
// which an asynchronous webhook event is resolved to an order; the raw
// event body is never trusted for order identity.
type Session struct {
	ProviderSessionID string
	OrderID           string
	OwnerID           string
	Status            SessionStatus
	CreatedAt         time.Time
}

// SessionStore persists session-to-order correlation rows.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	GetBySessionID(ctx context.Context, providerSessionID string) (*Session, error)
	// SetStatus records the terminal outcome of a session. Re-applying the
	// same status is a no-op.
	SetStatus(ctx context.Context, providerSessionID string, status SessionStatus) error
}

// ReturnURLs are where the provider redirects the customer after checkout.
type ReturnURLs struct {
	Success string
	Cancel  string
}

// CheckoutSession is the provider's answer to an open-session call.
type CheckoutSession struct {
	ID  string
	URL string
}

// Gateway opens provider-hosted checkout sessions for orders.
type Gateway interface {
	// OpenSession builds one provider line item per order line and opens a
	// hosted checkout session carrying the order/owner correlation
	// metadata. On failure the order stays persisted but session-less; a
	// timed-out call leaves no partial local state.
	OpenSession(ctx context.Context, o *order.Order, products []product.Product, urls ReturnURLs) (*CheckoutSession, error)
}

// ProviderError indicates a failed call to the payment provider. The order
// placement itself has already succeeded when this surfaces; callers treat
// it as recoverable.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
