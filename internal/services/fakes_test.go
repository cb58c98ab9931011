package services

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kmetijamarosa/storefront/internal/catalog"
	"github.com/kmetijamarosa/storefront/internal/db"
	"github.com/kmetijamarosa/storefront/internal/email"
	"github.com/kmetijamarosa/storefront/internal/images"
	"github.com/kmetijamarosa/storefront/internal/models"
	"github.com/kmetijamarosa/storefront/internal/stripe"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// options builds package options with ids opt-1, opt-2, ...
func options(prices ...string) catalog.PackageOptions {
	out := make(catalog.PackageOptions, 0, len(prices))
	for i, price := range prices {
		out = append(out, catalog.PackageOption{UniqueID: fmt.Sprintf("opt-%d", i+1), Price: dec(price), Weight: "250", Unit: "g"})
	}
	return out
}

type fakeProducts struct {
	mu       sync.Mutex
	products map[int64]*catalog.Product
	nextID   int64
}

func newFakeProducts(products ...*catalog.Product) *fakeProducts {
	f := &fakeProducts{products: map[int64]*catalog.Product{}, nextID: 100}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProducts) List(_ context.Context, filter db.ProductFilter) ([]*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*catalog.Product
	for _, id := range slices.Sorted(maps.Keys(f.products)) {
		p := f.products[id]
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProducts) GetProduct(_ context.Context, id int64) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProducts) Create(_ context.Context, product *catalog.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	product.ID = f.nextID
	f.products[product.ID] = product
	return nil
}

func (f *fakeProducts) Update(_ context.Context, product *catalog.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[product.ID]; !ok {
		return catalog.ErrProductNotFound
	}
	f.products[product.ID] = product
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return catalog.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

type fakeGiftPackages map[int64]catalog.GiftPackage

func (f fakeGiftPackages) List(context.Context) ([]catalog.GiftPackage, error) {
	var out []catalog.GiftPackage
	for _, id := range slices.Sorted(maps.Keys(f)) {
		out = append(out, f[id])
	}
	return out, nil
}

func (f fakeGiftPackages) Get(_ context.Context, id int64) (catalog.GiftPackage, error) {
	pkg, ok := f[id]
	if !ok {
		return catalog.GiftPackage{}, catalog.ErrGiftPackageNotFound
	}
	return pkg, nil
}

type fakeRecipes struct {
	recipes map[int64]*catalog.Recipe
}

func (f *fakeRecipes) List(context.Context) ([]*catalog.Recipe, error) {
	var out []*catalog.Recipe
	for _, id := range slices.Sorted(maps.Keys(f.recipes)) {
		out = append(out, f.recipes[id])
	}
	return out, nil
}

func (f *fakeRecipes) Get(_ context.Context, id int64) (*catalog.Recipe, error) {
	r, ok := f.recipes[id]
	if !ok {
		return nil, catalog.ErrRecipeNotFound
	}
	return r, nil
}

func (f *fakeRecipes) Create(_ context.Context, recipe *catalog.Recipe) error {
	recipe.ID = int64(len(f.recipes) + 1)
	f.recipes[recipe.ID] = recipe
	return nil
}

func (f *fakeRecipes) Update(_ context.Context, recipe *catalog.Recipe) error {
	if _, ok := f.recipes[recipe.ID]; !ok {
		return catalog.ErrRecipeNotFound
	}
	f.recipes[recipe.ID] = recipe
	return nil
}

func (f *fakeRecipes) Delete(_ context.Context, id int64) error {
	if _, ok := f.recipes[id]; !ok {
		return catalog.ErrRecipeNotFound
	}
	delete(f.recipes, id)
	return nil
}

type fakeGallery struct {
	mu          sync.Mutex
	processed   []string
	invalidated []string
}

func (f *fakeGallery) ProcessProductImages(_ context.Context, _ int64, mainImage string, additional []string) images.Gallery {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, mainImage)
	return images.Gallery{MainImageURL: "/" + mainImage, ValidAdditionalImages: additional}
}

func (f *fakeGallery) InvalidateGallery(_ context.Context, productID int64, mainImage string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, fmt.Sprintf("%d:%s", productID, mainImage))
}

type fakePayments struct {
	mu       sync.Mutex
	requests []stripe.PaymentIntentRequest
	err      error
}

func (f *fakePayments) CreatePaymentIntent(_ context.Context, req stripe.PaymentIntentRequest) (*stripe.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.PaymentIntent{ID: "pi_test", ClientSecret: "pi_test_secret_abc", Status: "requires_payment_method"}, nil
}

type fakeOrders struct {
	mu       sync.Mutex
	created  []*models.Order
	attached map[uuid.UUID]string
}

func (f *fakeOrders) Create(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order.OrderNumber = int64(1001 + len(f.created))
	f.created = append(f.created, order)
	return nil
}

func (f *fakeOrders) AttachPaymentIntent(_ context.Context, orderID uuid.UUID, paymentIntentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attached == nil {
		f.attached = map[uuid.UUID]string{}
	}
	f.attached[orderID] = paymentIntentID
	return nil
}

type fakeEmailProvider struct {
	mu   sync.Mutex
	sent []*email.Email
	err  error
}

func (f *fakeEmailProvider) SendEmail(_ context.Context, msg *email.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func validCustomer() models.Customer {
	return models.Customer{
		Name:       "Ana Novak",
		Email:      "ana@example.si",
		Address:    "Glavna ulica 1",
		City:       "Maribor",
		PostalCode: "2000",
		Country:    "SI",
	}
}
