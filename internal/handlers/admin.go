package handlers

import (
	"errors"
	"net/http"

	"github.com/kmetijamarosa/storefront/internal/catalog"
	"github.com/kmetijamarosa/storefront/internal/services"
)

// RequireAdmin wraps the admin API with Supabase token verification. Without a configured
// verifier every admin request is refused.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	if h.verifier == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.writeError(w, r, http.StatusServiceUnavailable, "Admin API is disabled")
		})
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		onError := func(w http.ResponseWriter, status int, message string) {
			h.writeError(w, r, status, message)
		}
		h.verifier.RequireAdmin(h.logger, onError)(next).ServeHTTP(w, r)
	})
}

func (h *Handlers) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	if h.adminService == nil {
		h.notConfigured(w, r, "admin")
		return
	}
	products, err := h.adminService.ListProducts(r.Context())
	if err != nil {
		h.writeAdminError(w, r, err, "Failed to load products")
		return
	}
	h.writeJSON(w, r, http.StatusOK, products)
}

func (h *Handlers) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	if h.adminService == nil {
		h.notConfigured(w, r, "admin")
		return
	}
	var input catalog.ProductInput
	if err := decodeJSON(w, r, &input); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	product, err := h.adminService.CreateProduct(r.Context(), input)
	if err != nil {
		h.writeAdminError(w, r, err, "Failed to create product")
		return
	}
	h.writeJSON(w, r, http.StatusCreated, product)
}

func (h *Handlers) AdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	if h.adminService == nil {
		h.notConfigured(w, r, "admin")
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var input catalog.ProductInput
	if err := decodeJSON(w, r, &input); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	product, err := h.adminService.UpdateProduct(r.Context(), id, input)
	if err != nil {
		h.writeAdminError(w, r, err, "Failed to update product")
		return
	}
	h.writeJSON(w, r, http.StatusOK, product)
}

func (h *Handlers) AdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if h.adminService == nil {
		h.notConfigured(w, r, "admin")
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.adminService.DeleteProduct(r.Context(), id); err != nil {
		h.writeAdminError(w, r, err, "Failed to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AdminCreateRecipe(w http.ResponseWriter, r *http.Request) {
	if h.adminService == nil {
		h.notConfigured(w, r, "admin")
		return
	}
	var input catalog.RecipeInput
	if err := decodeJSON(w, r, &input); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	recipe, err := h.adminService.CreateRecipe(r.Context(), input)
	if err != nil {
		h.writeAdminError(w, r, err, "Failed to create recipe")
		return
	}
	h.writeJSON(w, r, http.StatusCreated, recipe)
}

func (h *Handlers) AdminUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	if h.adminService == nil {
		h.notConfigured(w, r, "admin")
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var input catalog.RecipeInput
	if err := decodeJSON(w, r, &input); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	recipe, err := h.adminService.UpdateRecipe(r.Context(), id, input)
	if err != nil {
		h.writeAdminError(w, r, err, "Failed to update recipe")
		return
	}
	h.writeJSON(w, r, http.StatusOK, recipe)
}

func (h *Handlers) AdminDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if h.adminService == nil {
		h.notConfigured(w, r, "admin")
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.adminService.DeleteRecipe(r.Context(), id); err != nil {
		h.writeAdminError(w, r, err, "Failed to delete recipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeAdminError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var userErr services.UserError
	switch {
	case errors.As(err, &userErr):
		h.writeError(w, r, http.StatusBadRequest, userErr.Message)
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, catalog.ErrRecipeNotFound):
		h.writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrAdminServiceUnavailable):
		h.notConfigured(w, r, "admin store")
	default:
		h.loggerFromContext(r.Context()).Error(fallback, "error", err)
		h.writeError(w, r, http.StatusInternalServerError, fallback)
	}
}
