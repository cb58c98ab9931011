package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/kmetijamarosa/storefront/internal/services"
)

func TestListProducts_ReturnsActiveProductsWithCheapestOption(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.handlers.ListProducts(rec, httptest.NewRequest(http.MethodGet, "/api/products?locale=sl", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	var products []services.ProductView
	if err := json.Unmarshal(rec.Body.Bytes(), &products); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 active products, got %d", len(products))
	}
	if products[0].CheapestOption == nil || products[0].CheapestOption.UniqueID != "aro-250" {
		t.Fatalf("unexpected cheapest option: %+v", products[0].CheapestOption)
	}
}

func TestGetProduct_StatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   string
		want int
	}{
		{name: "active product", id: "1", want: http.StatusOK},
		{name: "inactive product", id: "3", want: http.StatusNotFound},
		{name: "missing product", id: "99", want: http.StatusNotFound},
		{name: "malformed id", id: "abc", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/products/"+tt.id, nil), map[string]string{"id": tt.id})
			rec := httptest.NewRecorder()
			env.handlers.GetProduct(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if rec.Header().Get("Content-Type") != "application/json" {
				t.Fatalf("expected JSON response, got %q", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestGetRecipe_UsesEnglishTitle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/recipes/7?locale=en-GB", nil), map[string]string{"id": "7"})
	rec := httptest.NewRecorder()
	env.handlers.GetRecipe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var recipe services.RecipeView
	if err := json.Unmarshal(rec.Body.Bytes(), &recipe); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if recipe.Title != "Chokeberry juice" {
		t.Fatalf("Title = %q, want %q", recipe.Title, "Chokeberry juice")
	}
}

func TestCatalogEndpoints_NotConfigured(t *testing.T) {
	t.Parallel()

	h := &Handlers{logger: discardLogger()}
	rec := httptest.NewRecorder()
	h.ListGiftPackages(rec, httptest.NewRequest(http.MethodGet, "/api/gift-packages", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
}
