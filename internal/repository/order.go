package repository

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sulaiman-00/FoodCart/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders
		(id, owner_id, lines, subtotal, surcharge, total, address_id, payment_method, paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	// Unconditional write keeps the transition idempotent: re-marking an
	// already-paid order changes nothing.
	setOrderPaidSQL = `UPDATE orders SET paid = TRUE WHERE id = $1`

	// visibleOrdersSQL embeds the listing contract: an order is visible
	// only when settled offline or already paid. Newest first.
	visibleOrdersSQL = `SELECT
			o.id, o.owner_id, o.lines, o.subtotal, o.surcharge, o.total,
			o.payment_method, o.paid, o.created_at,
			a.id, a.owner_id, a.street, a.city, a.state, a.zip_code, a.country
		FROM orders o
		JOIN addresses a ON a.id = o.address_id
		WHERE (o.payment_method = 'OFFLINE' OR o.paid)`

	visibleByOwnerSQL = visibleOrdersSQL + ` AND o.owner_id = $1
		ORDER BY o.created_at DESC`

	visibleAllSQL = visibleOrdersSQL + `
		ORDER BY o.created_at DESC`

	productDisplaySQL = `SELECT id, name, category, image_url
		FROM products WHERE id = ANY($1)`
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL. Order lines are
// stored as a JSONB document since they are immutable snapshots, never
// queried individually.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Create persists a new order.
func (s *OrderStore) Create(ctx context.Context, o *order.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return errors.Wrap(err, "marshal order lines")
	}

	_, err = s.pool.Exec(ctx, createOrderSQL,
		o.ID, o.OwnerID, linesJSON, o.Subtotal, o.Surcharge, o.Total,
		o.AddressID, string(o.PaymentMethod), o.Paid, o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}
	return nil
}

// SetPaid marks the order paid. Safe to re-apply.
func (s *OrderStore) SetPaid(ctx context.Context, orderID string) error {
	tag, err := s.pool.Exec(ctx, setOrderPaidSQL, orderID)
	if err != nil {
		return errors.Wrapf(err, "set order %q paid", orderID)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// FindByOwner returns the owner's visible orders with display expansion.
func (s *OrderStore) FindByOwner(ctx context.Context, ownerID string) ([]order.View, error) {
	rows, err := s.pool.Query(ctx, visibleByOwnerSQL, ownerID)
	if err != nil {
		return nil, errors.Wrapf(err, "find orders for owner %q", ownerID)
	}
	return s.collectViews(ctx, rows)
}

// FindAll returns every visible order with display expansion.
func (s *OrderStore) FindAll(ctx context.Context) ([]order.View, error) {
	rows, err := s.pool.Query(ctx, visibleAllSQL)
	if err != nil {
		return nil, errors.Wrap(err, "find all orders")
	}
	return s.collectViews(ctx, rows)
}

// collectViews scans order rows and resolves product display data for
// every referenced line in one batch query.
func (s *OrderStore) collectViews(ctx context.Context, rows pgx.Rows) ([]order.View, error) {
	views, err := pgx.CollectRows(rows, scanOrderView)
	if err != nil {
		return nil, errors.Wrap(err, "scan orders")
	}
	if len(views) == 0 {
		return views, nil
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, v := range views {
		for _, l := range v.Lines {
			if _, ok := seen[l.ProductID]; !ok {
				seen[l.ProductID] = struct{}{}
				ids = append(ids, l.ProductID)
			}
		}
	}

	displayRows, err := s.pool.Query(ctx, productDisplaySQL, ids)
	if err != nil {
		return nil, errors.Wrap(err, "resolve product display data")
	}

	type display struct {
		name, category, imageURL string
	}
	byID := make(map[string]display, len(ids))
	var (
		id string
		d  display
	)
	if _, err := pgx.ForEachRow(displayRows, []any{&id, &d.name, &d.category, &d.imageURL}, func() error {
		byID[id] = d
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "scan product display data")
	}

	for i := range views {
		for j := range views[i].Lines {
			// A product removed from the catalog after the order was
			// placed leaves the display fields empty; the snapshot
			// price and quantity are still intact.
			d := byID[views[i].Lines[j].ProductID]
			views[i].Lines[j].ProductName = d.name
			views[i].Lines[j].Category = d.category
			views[i].Lines[j].ImageURL = d.imageURL
		}
	}
	return views, nil
}

func scanOrderView(row pgx.CollectableRow) (order.View, error) {
	var (
		v         order.View
		linesJSON []byte
		method    string
	)
	err := row.Scan(
		&v.ID, &v.OwnerID, &linesJSON, &v.Subtotal, &v.Surcharge, &v.Total,
		&method, &v.Paid, &v.CreatedAt,
		&v.Address.ID, &v.Address.OwnerID, &v.Address.Street, &v.Address.City,
		&v.Address.State, &v.Address.ZipCode, &v.Address.Country,
	)
	if err != nil {
		return v, err
	}
	v.PaymentMethod = order.PaymentMethod(method)

	var lines []order.Line
	if err := json.Unmarshal(linesJSON, &lines); err != nil {
		return v, errors.Wrapf(err, "unmarshal lines for order %q", v.ID)
	}
	v.Lines = make([]order.LineView, len(lines))
	for i, l := range lines {
		v.Lines[i] = order.LineView{Line: l}
	}
	return v, nil
}
