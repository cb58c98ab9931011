package handlers

import (
	"net/http"
	"time"

	"github.com/kmetijamarosa/storefront/internal/consent"
)

type consentResponse struct {
	consent.Preferences
	Given   bool               `json:"given"`
	Revoked []consent.Category `json:"revoked,omitempty"`
}

func (h *Handlers) GetConsent(w http.ResponseWriter, r *http.Request) {
	state, ok := h.sessionState(w, r)
	if !ok {
		return
	}
	prefs := state.Data.Consent
	h.writeJSON(w, r, http.StatusOK, consentResponse{Preferences: prefs, Given: prefs.Given()})
}

func (h *Handlers) UpdateConsent(w http.ResponseWriter, r *http.Request) {
	state, ok := h.sessionState(w, r)
	if !ok {
		return
	}

	var prefs consent.Preferences
	if err := decodeJSON(w, r, &prefs); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	revoked := state.Data.ApplyConsent(prefs, time.Now())
	if !h.commitSession(w, r, state) {
		return
	}
	if len(revoked) > 0 {
		h.loggerFromContext(r.Context()).Info("consent revoked", "categories", revoked)
	}
	h.writeJSON(w, r, http.StatusOK, consentResponse{
		Preferences: state.Data.Consent,
		Given:       true,
		Revoked:     revoked,
	})
}

type discountBannerResponse struct {
	Shown bool `json:"shown"`
}

func (h *Handlers) GetDiscountBanner(w http.ResponseWriter, r *http.Request) {
	state, ok := h.sessionState(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, r, http.StatusOK, discountBannerResponse{Shown: state.Data.DiscountBannerShown})
}

// MarkDiscountBannerShown answers 409 until the visitor grants functional consent.
func (h *Handlers) MarkDiscountBannerShown(w http.ResponseWriter, r *http.Request) {
	state, ok := h.sessionState(w, r)
	if !ok {
		return
	}
	if !state.Data.MarkDiscountBannerShown() {
		h.writeErrorCode(w, r, http.StatusConflict, "consent-required", "Functional consent is required")
		return
	}
	if !h.commitSession(w, r, state) {
		return
	}
	h.writeJSON(w, r, http.StatusOK, discountBannerResponse{Shown: true})
}
