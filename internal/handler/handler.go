// Package handler exposes the storefront HTTP API.
package handler

import (
	"github.com/go-chi/chi/v5"

	"github.com/sulaiman-00/FoodCart/internal/domain/auth"
	"github.com/sulaiman-00/FoodCart/internal/domain/cart"
	"github.com/sulaiman-00/FoodCart/internal/domain/order"
	"github.com/sulaiman-00/FoodCart/internal/domain/product"
	"github.com/sulaiman-00/FoodCart/internal/payment"
	"github.com/sulaiman-00/FoodCart/internal/reconcile"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// PublicOrigin is the storefront origin used for checkout return URLs
	// when the request carries no Origin header.
	PublicOrigin string
}

// Handler implements the HTTP API, delegating business logic to the
// injected domain services and repositories.
type Handler struct {
	cfg       Config
	products  product.Repository
	carts     cart.Repository
	orders    *order.Service
	store     order.Store
	gateway   payment.Gateway
	sessions  payment.SessionStore
	processor *reconcile.Processor
}

// New constructs a Handler with the required dependencies.
func New(
	cfg Config,
	products product.Repository,
	carts cart.Repository,
	orders *order.Service,
	store order.Store,
	gateway payment.Gateway,
	sessions payment.SessionStore,
	processor *reconcile.Processor,
) *Handler {
	return &Handler{
		cfg:       cfg,
		products:  products,
		carts:     carts,
		orders:    orders,
		store:     store,
		gateway:   gateway,
		sessions:  sessions,
		processor: processor,
	}
}

// NewRouter mounts all API routes. The webhook route is outside the API-key
// group: its authentication is the provider signature, checked by the
// reconciliation processor itself.
func NewRouter(h *Handler, sec *Security) chi.Router {
	r := chi.NewRouter()

	r.Post("/webhook/payment", h.PaymentWebhook)

	r.Group(func(r chi.Router) {
		r.Use(sec.Authenticate)

		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)

		r.Get("/cart", h.GetCart)
		r.Put("/cart", h.UpdateCart)

		r.Post("/orders/offline", h.PlaceOfflineOrder)
		r.Post("/orders/online", h.PlaceOnlineOrder)
		r.Get("/orders", h.ListOwnOrders)
		r.With(sec.RequireScope(auth.ScopeSeller)).Get("/orders/all", h.ListAllOrders)
	})

	return r
}
