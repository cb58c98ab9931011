package handlers

import (
	"errors"
	"net/http"

	"github.com/kmetijamarosa/storefront/internal/email"
	"github.com/kmetijamarosa/storefront/internal/services"
)

func (h *Handlers) SendEmail(w http.ResponseWriter, r *http.Request) {
	if h.emailService == nil {
		h.notConfigured(w, r, "email")
		return
	}

	var req services.SendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	err := h.emailService.Send(r.Context(), req)
	switch {
	case err == nil:
		h.writeJSON(w, r, http.StatusOK, map[string]bool{"success": true})
	case errors.Is(err, services.ErrEmailNotConfigured):
		h.notConfigured(w, r, "email")
	case errors.Is(err, services.ErrInvalidEmail), errors.Is(err, email.ErrEmptyBody):
		h.writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		h.loggerFromContext(r.Context()).Error("failed to send email", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "Failed to send email")
	}
}
