package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sulaiman-00/FoodCart/internal/domain/address"
	"github.com/sulaiman-00/FoodCart/internal/domain/cart"
	"github.com/sulaiman-00/FoodCart/internal/domain/order"
	"github.com/sulaiman-00/FoodCart/internal/payment"
)

type lineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type placeOrderRequest struct {
	Lines     []lineRequest `json:"lines"`
	AddressID string        `json:"address_id"`
}

type placedOrderResponse struct {
	ID            string          `json:"id"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Surcharge     decimal.Decimal `json:"surcharge"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
}

type checkoutResponse struct {
	OrderID     string `json:"order_id"`
	CheckoutURL string `json:"checkout_url"`
}

type addressResponse struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`
}

type lineViewResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Category    string          `json:"category,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type orderViewResponse struct {
	ID            string             `json:"id"`
	OwnerID       string             `json:"owner_id"`
	Lines         []lineViewResponse `json:"lines"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Surcharge     decimal.Decimal    `json:"surcharge"`
	Total         decimal.Decimal    `json:"total"`
	Address       addressResponse    `json:"address"`
	PaymentMethod string             `json:"payment_method"`
	Paid          bool               `json:"paid"`
	CreatedAt     time.Time          `json:"created_at"`
}

// PlaceOfflineOrder handles POST /orders/offline: cash-style settlement,
// the order is listed immediately.
func (h *Handler) PlaceOfflineOrder(w http.ResponseWriter, r *http.Request) {
	result, ok := h.placeOrder(w, r, order.MethodOffline)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusCreated, placedResponse(result.Order))
}

// PlaceOnlineOrder handles POST /orders/online: the order is persisted,
// then a provider checkout session is opened and its correlation row
// stored. The response carries the redirect URL.
func (h *Handler) PlaceOnlineOrder(w http.ResponseWriter, r *http.Request) {
	result, ok := h.placeOrder(w, r, order.MethodOnline)
	if !ok {
		return
	}
	lg := zctx.From(r.Context()).With(zap.String("order_id", result.Order.ID))

	cs, err := h.gateway.OpenSession(r.Context(), result.Order, result.Products, h.returnURLs(r))
	if err != nil {
		// The order stays persisted but session-less; retrying checkout is
		// a caller policy.
		lg.Error("Opening checkout session failed", zap.Error(err))
		respondError(w, r, http.StatusBadGateway, "payment provider unavailable")
		return
	}

	if err := h.sessions.Create(r.Context(), &payment.Session{
		ProviderSessionID: cs.ID,
		OrderID:           result.Order.ID,
		OwnerID:           result.Order.OwnerID,
		Status:            payment.StatusOpen,
	}); err != nil {
		lg.Error("Recording checkout session failed",
			zap.String("session_id", cs.ID), zap.Error(err))
		respondError(w, r, http.StatusBadGateway, "payment provider unavailable")
		return
	}

	respondJSON(w, r, http.StatusCreated, checkoutResponse{
		OrderID:     result.Order.ID,
		CheckoutURL: cs.URL,
	})
}

// placeOrder decodes and validates the placement request; a false return
// means a response has already been written.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request, method order.PaymentMethod) (*order.PlaceOrderResult, bool) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}

	info := IdentityFromContext(r.Context())
	lines := make([]cart.Line, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = cart.Line{ProductID: l.ProductID, Quantity: l.Quantity}
	}

	result, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		OwnerID:   info.OwnerID,
		Lines:     lines,
		AddressID: req.AddressID,
		Method:    method,
	})
	if err != nil {
		h.mapOrderError(w, r, err)
		return nil, false
	}
	return result, true
}

// mapOrderError converts placement errors to HTTP responses.
func (h *Handler) mapOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrEmptyCart), errors.Is(err, order.ErrUnknownMethod):
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, address.ErrNotFound):
		respondError(w, r, http.StatusUnprocessableEntity, "shipping address not found")
		return
	}

	var iqErr *order.InvalidQuantityError
	if errors.As(err, &iqErr) {
		respondError(w, r, http.StatusUnprocessableEntity, iqErr.Error())
		return
	}

	var pnfErr *order.ProductNotFoundError
	if errors.As(err, &pnfErr) {
		respondError(w, r, http.StatusUnprocessableEntity, pnfErr.Error())
		return
	}

	zctx.From(r.Context()).Error("Placing order failed", zap.Error(err))
	respondError(w, r, http.StatusInternalServerError, "internal error")
}

// ListOwnOrders handles GET /orders: the caller's visible orders.
func (h *Handler) ListOwnOrders(w http.ResponseWriter, r *http.Request) {
	info := IdentityFromContext(r.Context())
	views, err := h.store.FindByOwner(r.Context(), info.OwnerID)
	if err != nil {
		zctx.From(r.Context()).Error("Listing orders failed", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, r, http.StatusOK, viewResponses(views))
}

// ListAllOrders handles GET /orders/all: every visible order, seller scope.
func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	views, err := h.store.FindAll(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("Listing all orders failed", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, r, http.StatusOK, viewResponses(views))
}

// returnURLs derives checkout redirect targets from the request origin,
// falling back to the configured public origin.
func (h *Handler) returnURLs(r *http.Request) payment.ReturnURLs {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = h.cfg.PublicOrigin
	}
	return payment.ReturnURLs{
		Success: origin + "/loader?next=my-orders",
		Cancel:  origin + "/cart",
	}
}

func placedResponse(o *order.Order) placedOrderResponse {
	return placedOrderResponse{
		ID:            o.ID,
		Subtotal:      o.Subtotal,
		Surcharge:     o.Surcharge,
		Total:         o.Total,
		PaymentMethod: string(o.PaymentMethod),
		CreatedAt:     o.CreatedAt,
	}
}

func viewResponses(views []order.View) []orderViewResponse {
	out := make([]orderViewResponse, len(views))
	for i, v := range views {
		lines := make([]lineViewResponse, len(v.Lines))
		for j, l := range v.Lines {
			lines[j] = lineViewResponse{
				ProductID:   l.ProductID,
				ProductName: l.ProductName,
				Category:    l.Category,
				ImageURL:    l.ImageURL,
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
			}
		}
		out[i] = orderViewResponse{
			ID:        v.ID,
			OwnerID:   v.OwnerID,
			Lines:     lines,
			Subtotal:  v.Subtotal,
			Surcharge: v.Surcharge,
			Total:     v.Total,
			Address: addressResponse{
				Street:  v.Address.Street,
				City:    v.Address.City,
				State:   v.Address.State,
				ZipCode: v.Address.ZipCode,
				Country: v.Address.Country,
			},
			PaymentMethod: string(v.PaymentMethod),
			Paid:          v.Paid,
			CreatedAt:     v.CreatedAt,
		}
	}
	return out
}
