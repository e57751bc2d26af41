// Package cart defines the per-customer shopping cart collaborator.
// Carts are ephemeral: placing an order does not touch them, only a
// successful payment reconciliation clears them.
package cart

import "context"

// Line is a desired product/quantity pair in a customer's cart.
type Line struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Repository defines the cart operations the storefront needs.
type Repository interface {
	// Get returns the cart lines for the owner. A missing cart is an empty
	// cart, not an error.
	Get(ctx context.Context, ownerID string) ([]Line, error)
	// Replace overwrites the owner's cart with the given lines.
	Replace(ctx context.Context, ownerID string, lines []Line) error
	// Clear empties the owner's cart. Clearing an already-empty cart is a
	// no-op, which keeps payment reconciliation idempotent.
	Clear(ctx context.Context, ownerID string) error
}
