package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kmetijamarosa/storefront/internal/models"
	"github.com/kmetijamarosa/storefront/internal/services"
	"github.com/kmetijamarosa/storefront/internal/stripe"
)

// paymentIntentRequest accepts both the direct form (amount in minor units) and the
// cart form, where the server prices the session cart itself.
type paymentIntentRequest struct {
	Amount   json.Number      `json:"amount"`
	Currency string           `json:"currency"`
	OrderID  string           `json:"orderId"`
	UseCart  bool             `json:"useCart"`
	Customer *models.Customer `json:"customer"`
}

type clientSecretResponse struct {
	ClientSecret string `json:"clientSecret"`
}

func (h *Handlers) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	if h.checkoutService == nil {
		h.notConfigured(w, r, "checkout")
		return
	}

	var req paymentIntentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if req.UseCart {
		h.checkoutCart(w, r, req)
		return
	}

	if req.Amount == "" {
		h.writeError(w, r, http.StatusBadRequest, "amount is required")
		return
	}
	amount, err := req.Amount.Int64()
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, stripe.ErrInvalidAmount.Error())
		return
	}

	intent, err := h.checkoutService.CreatePaymentIntent(r.Context(), services.PaymentIntentInput{
		Amount:   amount,
		Currency: req.Currency,
		OrderID:  strings.TrimSpace(req.OrderID),
	})
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, clientSecretResponse{ClientSecret: intent.ClientSecret})
}

func (h *Handlers) checkoutCart(w http.ResponseWriter, r *http.Request, req paymentIntentRequest) {
	state, ok := h.sessionState(w, r)
	if !ok {
		return
	}
	if req.Customer == nil {
		h.writeError(w, r, http.StatusBadRequest, "customer is required")
		return
	}

	result, err := h.checkoutService.CheckoutCart(r.Context(), &state.Data.Cart, *req.Customer)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	// the cart stays in the session until the payment is confirmed
	if !h.commitSession(w, r, state) {
		return
	}
	h.writeJSON(w, r, http.StatusOK, result)
}

func (h *Handlers) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, stripe.ErrInvalidAmount),
		errors.Is(err, stripe.ErrInvalidCurrency),
		errors.Is(err, services.ErrInvalidCustomer),
		errors.Is(err, services.ErrEmptyCart):
		h.writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrPaymentsOff):
		h.notConfigured(w, r, "payments")
	default:
		h.loggerFromContext(r.Context()).Error("failed to create payment intent", "error", err)
		message := stripe.ErrorMessage(err)
		if message == "" {
			message = "Failed to create payment intent"
		}
		h.writeError(w, r, http.StatusInternalServerError, message)
	}
}
