package handlers

import (
	"net/http"
	"time"

	"github.com/kmetijamarosa/storefront/internal/cache"
	stripewebhook "github.com/kmetijamarosa/storefront/internal/stripe"
)

const (
	maxWebhookBodyBytes = 1 << 20
	// stripeWebhookIdempotencyTTL is how long processed event IDs are remembered
	stripeWebhookIdempotencyTTL = 24 * time.Hour
)

func (h *Handlers) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)

	event, err := stripewebhook.ReadWebhookEvent(r, h.config.StripeWebhookSecret)
	if err != nil {
		logger.Error("failed to read Stripe webhook payload", "error", err)
		h.writeError(w, r, http.StatusBadRequest, "Invalid webhook")
		return
	}

	if event == nil || event.ID == "" {
		logger.Error("missing Stripe event ID")
		h.writeError(w, r, http.StatusBadRequest, "Missing event ID")
		return
	}

	cacheKey := cache.WebhookKey("stripe", event.ID)
	if h.cacheProvider != nil {
		if _, err := h.cacheProvider.Get(ctx, cacheKey); err == nil {
			logger.Info("webhook already processed", "event_id", event.ID)
			h.writeJSON(w, r, http.StatusOK, map[string]bool{"received": true})
			return
		}
	}

	if h.stripeRouter == nil {
		h.notConfigured(w, r, "stripe webhook")
		return
	}

	if err := h.stripeRouter.Handle(ctx, event); err != nil {
		logger.Error("failed to process Stripe webhook", "error", err, "type", event.Type, "event_id", event.ID)
		h.writeError(w, r, http.StatusInternalServerError, "Processing failed")
		return
	}

	if h.cacheProvider != nil {
		if err := h.cacheProvider.Set(ctx, cacheKey, "processed", stripeWebhookIdempotencyTTL); err != nil {
			logger.Error("failed to mark webhook as processed in cache", "error", err)
		}
	}
	h.writeJSON(w, r, http.StatusOK, map[string]bool{"received": true})
}
