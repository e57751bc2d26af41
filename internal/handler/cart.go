package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/sulaiman-00/FoodCart/internal/domain/cart"
)

type cartResponse struct {
	Lines []cart.Line `json:"lines"`
}

type updateCartRequest struct {
	Lines []lineRequest `json:"lines"`
}

// GetCart handles GET /cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	info := IdentityFromContext(r.Context())
	lines, err := h.carts.Get(r.Context(), info.OwnerID)
	if err != nil {
		zctx.From(r.Context()).Error("Getting cart failed", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if lines == nil {
		lines = []cart.Line{}
	}
	respondJSON(w, r, http.StatusOK, cartResponse{Lines: lines})
}

// UpdateCart handles PUT /cart: the caller's cart is replaced wholesale.
func (h *Handler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var req updateCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	lines := make([]cart.Line, len(req.Lines))
	for i, l := range req.Lines {
		if l.ProductID == "" || l.Quantity <= 0 {
			respondError(w, r, http.StatusBadRequest,
				fmt.Sprintf("line %d: product_id and positive quantity required", i))
			return
		}
		lines[i] = cart.Line{ProductID: l.ProductID, Quantity: l.Quantity}
	}

	info := IdentityFromContext(r.Context())
	if err := h.carts.Replace(r.Context(), info.OwnerID, lines); err != nil {
		zctx.From(r.Context()).Error("Replacing cart failed", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, r, http.StatusOK, cartResponse{Lines: lines})
}
