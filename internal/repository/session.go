package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sulaiman-00/FoodCart/internal/payment"
)

const (
	createSessionSQL = `INSERT INTO payment_sessions
		(provider_session_id, order_id, owner_id, status, created_at)
		VALUES ($1, $2, $3, $4, now())`

	getSessionSQL = `SELECT provider_session_id, order_id, owner_id, status, created_at
		FROM payment_sessions WHERE provider_session_id = $1`

	setSessionStatusSQL = `UPDATE payment_sessions SET status = $2
		WHERE provider_session_id = $1`
)

var _ payment.SessionStore = (*SessionStore)(nil)

// SessionStore implements payment.SessionStore backed by PostgreSQL.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore returns a SessionStore that uses the given pool.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// Create persists a new session correlation row.
func (s *SessionStore) Create(ctx context.Context, sess *payment.Session) error {
	_, err := s.pool.Exec(ctx, createSessionSQL,
		sess.ProviderSessionID, sess.OrderID, sess.OwnerID, string(sess.Status),
	)
	if err != nil {
		return errors.Wrapf(err, "create session %q", sess.ProviderSessionID)
	}
	return nil
}

// GetBySessionID resolves a provider session reference to its local row.
func (s *SessionStore) GetBySessionID(ctx context.Context, providerSessionID string) (*payment.Session, error) {
	var (
		sess   payment.Session
		status string
	)
	err := s.pool.QueryRow(ctx, getSessionSQL, providerSessionID).Scan(
		&sess.ProviderSessionID, &sess.OrderID, &sess.OwnerID, &status, &sess.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrSessionNotFound
		}
		return nil, errors.Wrapf(err, "get session %q", providerSessionID)
	}
	sess.Status = payment.SessionStatus(status)
	return &sess, nil
}

// SetStatus records the session outcome. Re-applying the same status is a
// no-op at the row level.
func (s *SessionStore) SetStatus(ctx context.Context, providerSessionID string, status payment.SessionStatus) error {
	tag, err := s.pool.Exec(ctx, setSessionStatusSQL, providerSessionID, string(status))
	if err != nil {
		return errors.Wrapf(err, "set session %q status", providerSessionID)
	}
	if tag.RowsAffected() == 0 {
		return payment.ErrSessionNotFound
	}
	return nil
}
