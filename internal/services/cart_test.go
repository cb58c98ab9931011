package services

import (
	"context"
	"errors"
	"testing"

	"github.com/kmetijamarosa/storefront/internal/cart"
	"github.com/kmetijamarosa/storefront/internal/catalog"
)

func newTestCartService(products *fakeProducts) *CartService {
	return NewCartService(products, cart.NewEngine(products, cart.DefaultShippingPolicy(), nil, nil), nil)
}

func TestCartServiceAddItem(t *testing.T) {
	t.Parallel()

	products := newFakeProducts(
		&catalog.Product{ID: 1, Name: "Aronija", IsActive: true, PackageOptions: options("8.50", "4.20")},
		&catalog.Product{ID: 2, Name: "Neaktiven", IsActive: false, PackageOptions: options("1")},
		&catalog.Product{ID: 3, Name: "Brez opcij", IsActive: true},
	)
	svc := newTestCartService(products)

	tests := []struct {
		name      string
		productID int64
		optionID  string
		quantity  int
		wantErr   error
	}{
		{name: "default option", productID: 1, quantity: 1},
		{name: "explicit option", productID: 1, optionID: "opt-2", quantity: 2},
		{name: "unknown option", productID: 1, optionID: "nope", quantity: 1, wantErr: ErrOptionNotFound},
		{name: "zero quantity", productID: 1, quantity: 0, wantErr: ErrInvalidQuantity},
		{name: "inactive product", productID: 2, quantity: 1, wantErr: ErrProductUnavailable},
		{name: "no options", productID: 3, quantity: 1, wantErr: ErrProductUnavailable},
		{name: "missing product", productID: 9, quantity: 1, wantErr: catalog.ErrProductNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var c cart.Cart
			err := svc.AddItem(context.Background(), &c, tt.productID, tt.optionID, tt.quantity)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("AddItem() error = %v, want %v", err, tt.wantErr)
				}
				if !IsCatalogMiss(err) && !errors.Is(err, ErrInvalidQuantity) {
					t.Fatalf("expected a catalog miss, got %v", err)
				}
				if len(c.Items) != 0 {
					t.Fatalf("failed add should leave the cart untouched")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := tt.optionID
			if want == "" {
				want = "opt-1"
			}
			if len(c.Items) != 1 || c.Items[0].PackageOptionID != want || c.Items[0].Quantity != tt.quantity {
				t.Fatalf("unexpected cart items: %+v", c.Items)
			}
		})
	}
}

func TestCartServiceQuotePrunesStaleLines(t *testing.T) {
	t.Parallel()

	products := newFakeProducts(&catalog.Product{ID: 1, Name: "Aronija", IsActive: true, PackageOptions: options("10")})
	svc := newTestCartService(products)

	c := &cart.Cart{Items: []cart.LineItem{
		{ProductID: 1, PackageOptionID: "opt-1", Quantity: 3},
		{ProductID: 1, PackageOptionID: "opt-9", Quantity: 1},
		{ProductID: 42, PackageOptionID: "opt-1", Quantity: 1},
	}}

	quote, err := svc.Quote(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quote.Total.Equal(dec("30")) {
		t.Fatalf("total = %s, want 30 (free shipping)", quote.Total)
	}
	if quote.Dropped != 2 {
		t.Fatalf("dropped = %d, want 2", quote.Dropped)
	}
	if len(c.Items) != 1 || c.Items[0].PackageOptionID != "opt-1" {
		t.Fatalf("stale lines should be pruned, got %+v", c.Items)
	}
}

func TestCartServiceEditing(t *testing.T) {
	t.Parallel()

	svc := newTestCartService(newFakeProducts())
	c := &cart.Cart{
		Items: []cart.LineItem{{ProductID: 1, PackageOptionID: "a", Quantity: 1}},
		Gifts: []cart.GiftLineItem{{ID: "g1", Quantity: 1}},
	}

	if err := svc.UpdateItem(c, 1, "a", 4); err != nil {
		t.Fatalf("UpdateItem() error = %v", err)
	}
	if err := svc.UpdateItem(c, 1, "a", cart.MaxQuantity+1); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity above the cap, got %v", err)
	}
	if c.Items[0].Quantity != 4 {
		t.Fatalf("quantity = %d, want 4", c.Items[0].Quantity)
	}
	if !svc.RemoveGift(c, "g1") {
		t.Fatalf("expected gift removal to succeed")
	}
	svc.RemoveItem(c, 1, "a")
	if !c.IsEmpty() {
		t.Fatalf("cart should be empty")
	}
}
