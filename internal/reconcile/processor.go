// Package reconcile consumes asynchronous payment-provider events and
// applies idempotent state transitions to orders.
//
// Delivery is at-least-once and unordered, so every transition is written
// to be safely re-appliable: marking an order paid twice and clearing an
// already-empty cart are both no-ops by construction. No dedup storage is
// required for correctness; a bloom filter only flags likely redeliveries
// for observability.
package reconcile

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/sulaiman-00/FoodCart/internal/domain/cart"
	"github.com/sulaiman-00/FoodCart/internal/domain/order"
	"github.com/sulaiman-00/FoodCart/internal/payment"
)

// Sizing for the redelivery hint filter. False positives only cost a log
// line, so the estimates stay small.
const (
	seenCapacity = 1_000_000
	seenFPR      = 0.01
)

// Processor is the payment reconciliation state machine. Per online order:
// PENDING_PAYMENT -> PAID (terminal) or PENDING_PAYMENT -> PAYMENT_FAILED
// (terminal, order kept unpaid for audit). Nothing transitions out of PAID.
type Processor struct {
	verifier *payment.Verifier
	sessions payment.SessionStore
	orders   order.Store
	carts    cart.Repository

	mu   sync.Mutex
	seen *bloom.BloomFilter
}

// NewProcessor creates a Processor with the required collaborators.
func NewProcessor(
	verifier *payment.Verifier,
	sessions payment.SessionStore,
	orders order.Store,
	carts cart.Repository,
) *Processor {
	return &Processor{
		verifier: verifier,
		sessions: sessions,
		orders:   orders,
		carts:    carts,
		seen:     bloom.NewWithEstimates(seenCapacity, seenFPR),
	}
}

// HandleEvent processes one provider callback delivery.
//
// A nil return acknowledges the event. Authenticity or envelope failures
// return payment.ErrInvalidSignature / payment.ErrMalformedEvent with no
// state change; the caller must answer non-2xx. Transient store failures
// return wrapped errors so the provider's retry redelivers the event;
// the idempotent transitions make that safe.
func (p *Processor) HandleEvent(ctx context.Context, raw []byte, signatureHeader string) error {
	lg := zctx.From(ctx)

	if err := p.verifier.Verify(raw, signatureHeader); err != nil {
		lg.Warn("Rejecting webhook with bad signature", zap.Error(err))
		return err
	}

	ev, err := payment.DecodeEvent(raw)
	if err != nil {
		lg.Warn("Rejecting undecodable webhook payload", zap.Error(err))
		return err
	}

	lg = lg.With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))

	kind := ev.Kind()
	if kind == payment.KindOther {
		lg.Debug("Acknowledging event without side effects")
		return nil
	}

	if p.markSeen(ev.ID) {
		lg.Info("Event likely redelivered, re-applying idempotent transition")
	}

	if ev.SessionID == "" {
		lg.Warn("Settlement event carries no session reference, acknowledging")
		return nil
	}

	sess, err := p.sessions.GetBySessionID(ctx, ev.SessionID)
	if err != nil {
		if errors.Is(err, payment.ErrSessionNotFound) {
			lg.Warn("No local session for event, acknowledging",
				zap.String("session_id", ev.SessionID))
			return nil
		}
		return errors.Wrapf(err, "lookup session %s", ev.SessionID)
	}

	lg = lg.With(zap.String("order_id", sess.OrderID))

	switch kind {
	case payment.KindPaymentSucceeded:
		return p.applySuccess(ctx, lg, sess)
	case payment.KindPaymentFailed:
		return p.applyFailure(ctx, lg, sess)
	default:
		return nil
	}
}

// applySuccess marks the order paid, clears the owning cart, and completes
// the session. Each write is idempotent, so redelivery of the same event
// converges on the same end state.
func (p *Processor) applySuccess(ctx context.Context, lg *zap.Logger, sess *payment.Session) error {
	if err := p.orders.SetPaid(ctx, sess.OrderID); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			lg.Warn("Session references missing order, acknowledging")
			return nil
		}
		return errors.Wrapf(err, "mark order %s paid", sess.OrderID)
	}

	if err := p.carts.Clear(ctx, sess.OwnerID); err != nil {
		return errors.Wrapf(err, "clear cart for owner %s", sess.OwnerID)
	}

	if err := p.sessions.SetStatus(ctx, sess.ProviderSessionID, payment.StatusCompleted); err != nil {
		return errors.Wrapf(err, "complete session %s", sess.ProviderSessionID)
	}

	lg.Info("Order settled")
	return nil
}

// applyFailure records the terminal failure on the session. The order row
// stays unpaid and undeleted for audit and manual retry.
func (p *Processor) applyFailure(ctx context.Context, lg *zap.Logger, sess *payment.Session) error {
	if err := p.sessions.SetStatus(ctx, sess.ProviderSessionID, payment.StatusFailed); err != nil {
		return errors.Wrapf(err, "fail session %s", sess.ProviderSessionID)
	}

	lg.Info("Payment failed, order kept unpaid")
	return nil
}

// markSeen records the event id in the redelivery filter and reports
// whether it was (probably) seen before.
func (p *Processor) markSeen(eventID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seen.TestAndAddString(eventID)
}
