package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kmetijamarosa/storefront/internal/catalog"
	"github.com/kmetijamarosa/storefront/internal/gift"
	"github.com/kmetijamarosa/storefront/internal/services"
)

var requestValidator = validator.New(validator.WithRequiredStructEnabled())

func (h *Handlers) PreviewGift(w http.ResponseWriter, r *http.Request) {
	if h.giftService == nil {
		h.notConfigured(w, r, "gift")
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

	preview, err := h.giftService.Preview(r.Context(), req)
	if err != nil {
		h.writeGiftError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, preview)
}

func (h *Handlers) writeGiftError(w http.ResponseWriter, r *http.Request, err error) {
	if code, ok := services.GiftErrorCode(err); ok {
		h.writeErrorCode(w, r, http.StatusUnprocessableEntity, code, err.Error())
		return
	}
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		h.writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrGiftPackageNotFound), errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, gift.ErrOptionNotFound):
		h.writeError(w, r, http.StatusNotFound, err.Error())
	default:
		h.loggerFromContext(r.Context()).Error("failed to compose gift", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "Failed to compose gift")
	}
}
