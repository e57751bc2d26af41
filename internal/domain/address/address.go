package address

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested address does not exist.
var ErrNotFound = errors.New("address not found")

// Address is a customer shipping address referenced by orders.
type Address struct {
	ID      string
	OwnerID string
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
}

// Repository defines read operations for shipping addresses.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Address, error)
}
