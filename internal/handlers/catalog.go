package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kmetijamarosa/storefront/internal/catalog"
)

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	if h.catalogService == nil {
		h.notConfigured(w, r, "catalog")
		return
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	products, err := h.catalogService.ListProducts(r.Context(), category, localeParam(r))
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to list products", "error", err, "category", category)
		h.writeError(w, r, http.StatusInternalServerError, "Failed to load products")
		return
	}
	h.writeJSON(w, r, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	if h.catalogService == nil {
		h.notConfigured(w, r, "catalog")
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	product, err := h.catalogService.GetProduct(r.Context(), id, localeParam(r))
	if errors.Is(err, catalog.ErrProductNotFound) {
		h.writeError(w, r, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to get product", "error", err, "product_id", id)
		h.writeError(w, r, http.StatusInternalServerError, "Failed to load product")
		return
	}
	h.writeJSON(w, r, http.StatusOK, product)
}

func (h *Handlers) ListGiftPackages(w http.ResponseWriter, r *http.Request) {
	if h.catalogService == nil {
		h.notConfigured(w, r, "catalog")
		return
	}
	packages, err := h.catalogService.ListGiftPackages(r.Context())
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to list gift packages", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "Failed to load gift packages")
		return
	}
	h.writeJSON(w, r, http.StatusOK, packages)
}

func (h *Handlers) ListRecipes(w http.ResponseWriter, r *http.Request) {
	if h.catalogService == nil {
		h.notConfigured(w, r, "catalog")
		return
	}
	recipes, err := h.catalogService.ListRecipes(r.Context(), localeParam(r))
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to list recipes", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "Failed to load recipes")
		return
	}
	h.writeJSON(w, r, http.StatusOK, recipes)
}

func (h *Handlers) GetRecipe(w http.ResponseWriter, r *http.Request) {
	if h.catalogService == nil {
		h.notConfigured(w, r, "catalog")
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	recipe, err := h.catalogService.GetRecipe(r.Context(), id, localeParam(r))
	if errors.Is(err, catalog.ErrRecipeNotFound) {
		h.writeError(w, r, http.StatusNotFound, "Recipe not found")
		return
	}
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to get recipe", "error", err, "recipe_id", id)
		h.writeError(w, r, http.StatusInternalServerError, "Failed to load recipe")
		return
	}
	h.writeJSON(w, r, http.StatusOK, recipe)
}
