package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/sulaiman-00/FoodCart/internal/payment"
)

// maxWebhookBody bounds webhook payload size.
const maxWebhookBody = 1 << 20

// SignatureHeader carries the provider's payload signature.
const SignatureHeader = "Payment-Signature"

type webhookAck struct {
	Received bool `json:"received"`
}

// PaymentWebhook handles POST /webhook/payment. Authenticity and envelope
// failures are rejected with 400 and no state change. Transient processing
// failures return 500 so the provider's at-least-once retry redelivers;
// the reconciliation transitions are idempotent, so redelivery is safe.
// Every outcome here is non-fatal to the process.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "unreadable payload")
		return
	}

	err = h.processor.HandleEvent(r.Context(), raw, r.Header.Get(SignatureHeader))
	switch {
	case err == nil:
		respondJSON(w, r, http.StatusOK, webhookAck{Received: true})
	case errors.Is(err, payment.ErrInvalidSignature):
		respondError(w, r, http.StatusBadRequest, "invalid signature")
	case errors.Is(err, payment.ErrMalformedEvent):
		respondError(w, r, http.StatusBadRequest, "malformed event")
	default:
		zctx.From(r.Context()).Error("Processing webhook failed", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "event processing failed")
	}
}
