package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kmetijamarosa/storefront/internal/cart"
	"github.com/kmetijamarosa/storefront/internal/services"
	"github.com/kmetijamarosa/storefront/internal/session"
)

type cartItemRequest struct {
	ProductID       int64  `json:"productId"`
	PackageOptionID string `json:"packageOptionId"`
	Quantity        any    `json:"quantity"`
}

func (h *Handlers) sessionState(w http.ResponseWriter, r *http.Request) (*session.State, bool) {
	state := session.FromContext(r.Context())
	if state == nil || state.Data == nil {
		h.notConfigured(w, r, "session")
		return nil, false
	}
	return state, true
}

func (h *Handlers) commitSession(w http.ResponseWriter, r *http.Request, state *session.State) bool {
	if err := h.sessionManager.Commit(r.Context(), w, state); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to save session", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "Failed to save session")
		return false
	}
	return true
}

// respondWithCart prices the session cart, saves whatever pruning the quote did, and
// writes the quote.
func (h *Handlers) respondWithCart(w http.ResponseWriter, r *http.Request, state *session.State, status int) {
	quote, err := h.cartService.Quote(r.Context(), &state.Data.Cart)
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to quote cart", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	if !h.commitSession(w, r, state) {
		return
	}
	h.writeJSON(w, r, status, quote)
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	if h.cartService == nil {
		h.notConfigured(w, r, "cart")
		return
	}
	state, ok := h.sessionState(w, r)
	if !ok {
		return
	}
	h.respondWithCart(w, r, state, http.StatusOK)
}

func (h *Handlers) AddCartItem(w http.ResponseWriter, r *http.Request) {
	if h.cartService == nil {
		h.notConfigured(w, r, "cart")
		return
	}
	state, ok := h.sessionState(w, r)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	quantity := cart.ParseQuantity(req.Quantity)
	if req.Quantity == nil {
		quantity = 1
	}
	err := h.cartService.AddItem(r.Context(), &state.Data.Cart, req.ProductID, req.PackageOptionID, quantity)
	if err != nil {
		h.writeCartError(w, r, err)
		return
	}
	h.respondWithCart(w, r, state, http.StatusOK)
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	if h.cartService == nil {
		h.notConfigured(w, r, "cart")
		return
	}
	state, ok := h.sessionState(w, r)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ProductID <= 0 || req.PackageOptionID == "" {
		h.writeError(w, r, http.StatusBadRequest, "productId and packageOptionId are required")
		return
	}

	// quantity 0 removes the line
	if err := h.cartService.UpdateItem(&state.Data.Cart, req.ProductID, req.PackageOptionID, cart.ParseQuantity(req.Quantity)); err != nil {
		h.writeCartError(w, r, err)
		return
	}
	h.respondWithCart(w, r, state, http.StatusOK)
}

func (h *Handlers) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	if h.cartService == nil {
		h.notConfigured(w, r, "cart")
		return
	}
	state, ok := h.sessionState(w, r)
	if !ok {
		return
	}
	productID, err := pathInt64(r, "productId")
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	h.cartService.RemoveItem(&state.Data.Cart, productID, mux.Vars(r)["optionId"])
	h.respondWithCart(w, r, state, http.StatusOK)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	if h.cartService == nil {
		h.notConfigured(w, r, "cart")
		return
	}
	state, ok := h.sessionState(w, r)
	if !ok {
		return
	}
	h.cartService.Clear(&state.Data.Cart)
	h.respondWithCart(w, r, state, http.StatusOK)
}

func (h *Handlers) AddCartGift(w http.ResponseWriter, r *http.Request) {
	if h.cartService == nil || h.giftService == nil {
		h.notConfigured(w, r, "gift")
		return
	}
	state, ok := h.sessionState(w, r)
	if !ok {
		return
	}

	var req services.GiftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := requestValidator.Struct(req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.giftService.AddToCart(r.Context(), &state.Data.Cart, req); err != nil {
		h.writeGiftError(w, r, err)
		return
	}
	h.respondWithCart(w, r, state, http.StatusCreated)
}

func (h *Handlers) RemoveCartGift(w http.ResponseWriter, r *http.Request) {
	if h.cartService == nil {
		h.notConfigured(w, r, "cart")
		return
	}
	state, ok := h.sessionState(w, r)
	if !ok {
		return
	}
	if !h.cartService.RemoveGift(&state.Data.Cart, mux.Vars(r)["id"]) {
		h.writeError(w, r, http.StatusNotFound, "Gift not found in cart")
		return
	}
	h.respondWithCart(w, r, state, http.StatusOK)
}

func (h *Handlers) writeCartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case services.IsCatalogMiss(err):
		h.writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidQuantity):
		h.writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		h.loggerFromContext(r.Context()).Error("failed to update cart", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "Failed to update cart")
	}
}
