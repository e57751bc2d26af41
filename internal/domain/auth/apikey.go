package auth

import "context"

// Scopes granted to API keys.
const (
	// ScopeCustomer allows cart and order operations on the key owner's
	// own data.
	ScopeCustomer = "customer"
	// ScopeSeller additionally allows the storefront-wide order listing.
	ScopeSeller = "seller"
)

// APIKeyInfo holds the identity and permission data for a validated API
// key. OwnerID is the customer the key acts for; it is the ownerRef
// attached to carts, addresses, and orders.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	OwnerID string
	Name    string
	Scopes  []string
}

// HasScope reports whether the key carries the given scope.
func (i *APIKeyInfo) HasScope(scope string) bool {
	for _, s := range i.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
