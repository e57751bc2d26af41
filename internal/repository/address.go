package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sulaiman-00/FoodCart/internal/domain/address"
)

const getAddressByIDSQL = `SELECT id, owner_id, street, city, state, zip_code, country
	FROM addresses WHERE id = $1`

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// GetByID returns a single address by its identifier.
func (r *AddressRepository) GetByID(ctx context.Context, id string) (*address.Address, error) {
	var a address.Address
	err := r.pool.QueryRow(ctx, getAddressByIDSQL, id).Scan(
		&a.ID, &a.OwnerID, &a.Street, &a.City, &a.State, &a.ZipCode, &a.Country,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get address %q", id)
	}
	return &a, nil
}
