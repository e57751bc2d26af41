package repository

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sulaiman-00/FoodCart/internal/domain/cart"
)

const (
	getCartSQL = `SELECT lines FROM carts WHERE owner_id = $1`

	replaceCartSQL = `INSERT INTO carts (owner_id, lines, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (owner_id) DO UPDATE SET lines = EXCLUDED.lines, updated_at = now()`

	// Clearing a missing or already-empty cart affects zero rows and is
	// deliberately not an error.
	clearCartSQL = `UPDATE carts SET lines = '[]', updated_at = now() WHERE owner_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL, one JSONB
// row per owner.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Get returns the owner's cart lines; a missing row is an empty cart.
func (r *CartRepository) Get(ctx context.Context, ownerID string) ([]cart.Line, error) {
	var linesJSON []byte
	err := r.pool.QueryRow(ctx, getCartSQL, ownerID).Scan(&linesJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "get cart for owner %q", ownerID)
	}

	var lines []cart.Line
	if err := json.Unmarshal(linesJSON, &lines); err != nil {
		return nil, errors.Wrapf(err, "unmarshal cart for owner %q", ownerID)
	}
	return lines, nil
}

// Replace overwrites the owner's cart.
func (r *CartRepository) Replace(ctx context.Context, ownerID string, lines []cart.Line) error {
	if lines == nil {
		lines = []cart.Line{}
	}
	linesJSON, err := json.Marshal(lines)
	if err != nil {
		return errors.Wrap(err, "marshal cart lines")
	}

	if _, err := r.pool.Exec(ctx, replaceCartSQL, ownerID, linesJSON); err != nil {
		return errors.Wrapf(err, "replace cart for owner %q", ownerID)
	}
	return nil
}

// Clear empties the owner's cart.
func (r *CartRepository) Clear(ctx context.Context, ownerID string) error {
	if _, err := r.pool.Exec(ctx, clearCartSQL, ownerID); err != nil {
		return errors.Wrapf(err, "clear cart for owner %q", ownerID)
	}
	return nil
}
