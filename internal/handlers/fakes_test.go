package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/kmetijamarosa/storefront/internal/cache"
	"github.com/kmetijamarosa/storefront/internal/cart"
	"github.com/kmetijamarosa/storefront/internal/catalog"
	"github.com/kmetijamarosa/storefront/internal/config"
	"github.com/kmetijamarosa/storefront/internal/db"
	"github.com/kmetijamarosa/storefront/internal/models"
	"github.com/kmetijamarosa/storefront/internal/services"
	"github.com/kmetijamarosa/storefront/internal/session"
	"github.com/kmetijamarosa/storefront/internal/stripe"
)

const testWebhookSecret = "whsec_handlers_test"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCatalog struct {
	products map[int64]*catalog.Product
	packages map[int64]catalog.GiftPackage
	recipes  map[int64]*catalog.Recipe
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: map[int64]*catalog.Product{
			1: {ID: 1, Name: "Aronija", IsActive: true, PackageOptions: catalog.PackageOptions{
				{UniqueID: "aro-250", Price: decimal.RequireFromString("8.50"), Weight: "250", Unit: "g"},
				{UniqueID: "aro-500", Price: decimal.RequireFromString("15.00"), Weight: "500", Unit: "g"},
			}},
			2: {ID: 2, Name: "Melisa", IsActive: true, PackageOptions: catalog.PackageOptions{
				{UniqueID: "mel-50", Price: decimal.RequireFromString("4.20"), Weight: "50", Unit: "g"},
			}},
			3: {ID: 3, Name: "Skrit izdelek", IsActive: false},
		},
		packages: map[int64]catalog.GiftPackage{
			1: {ID: 1, Name: "Mala darilna škatla", BasePrice: decimal.RequireFromString("3.00")},
		},
		recipes: map[int64]*catalog.Recipe{
			7: {ID: 7, Title: "Aronijin sok", TitleEN: "Chokeberry juice"},
		},
	}
}

func (f *fakeCatalog) List(_ context.Context, filter db.ProductFilter) ([]*catalog.Product, error) {
	var out []*catalog.Product
	for _, id := range []int64{1, 2, 3} {
		p := f.products[id]
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id int64) (*catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

type fakePackages struct{ *fakeCatalog }

func (f fakePackages) List(context.Context) ([]catalog.GiftPackage, error) {
	return []catalog.GiftPackage{f.packages[1]}, nil
}

func (f fakePackages) Get(_ context.Context, id int64) (catalog.GiftPackage, error) {
	pkg, ok := f.packages[id]
	if !ok {
		return catalog.GiftPackage{}, catalog.ErrGiftPackageNotFound
	}
	return pkg, nil
}

type fakeRecipes struct{ *fakeCatalog }

func (f fakeRecipes) List(context.Context) ([]*catalog.Recipe, error) {
	return []*catalog.Recipe{f.recipes[7]}, nil
}

func (f fakeRecipes) Get(_ context.Context, id int64) (*catalog.Recipe, error) {
	recipe, ok := f.recipes[id]
	if !ok {
		return nil, catalog.ErrRecipeNotFound
	}
	return recipe, nil
}

type fakePayments struct {
	mu       sync.Mutex
	requests []stripe.PaymentIntentRequest
}

func (f *fakePayments) CreatePaymentIntent(_ context.Context, req stripe.PaymentIntentRequest) (*stripe.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return &stripe.PaymentIntent{ID: "pi_handlers", ClientSecret: "pi_handlers_secret"}, nil
}

type fakeOrders struct {
	mu     sync.Mutex
	orders []*models.Order
}

func (f *fakeOrders) Create(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order.OrderNumber = int64(2000 + len(f.orders))
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeOrders) AttachPaymentIntent(context.Context, uuid.UUID, string) error {
	return nil
}

type recordingPaymentHandler struct {
	mu        sync.Mutex
	succeeded []string
	failed    []string
	err       error
}

func (r *recordingPaymentHandler) HandlePaymentIntentSucceeded(_ context.Context, event *stripeapi.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.succeeded = append(r.succeeded, event.ID)
	return r.err
}

func (r *recordingPaymentHandler) HandlePaymentIntentFailed(_ context.Context, event *stripeapi.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, event.ID)
	return r.err
}

type testEnv struct {
	handlers *Handlers
	payments *fakePayments
	orders   *fakeOrders
	events   *recordingPaymentHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := discardLogger()
	fc := newFakeCatalog()
	engine := cart.NewEngine(fc, cart.DefaultShippingPolicy(), nil, logger)
	carts := services.NewCartService(fc, engine, logger)
	payments := &fakePayments{}
	orders := &fakeOrders{}
	events := &recordingPaymentHandler{}

	memCache, err := cache.NewMemoryProvider(100)
	if err != nil {
		t.Fatalf("NewMemoryProvider() error: %v", err)
	}

	h, err := New(Dependencies{
		Config:          &config.Config{StripeWebhookSecret: testWebhookSecret, CORSAllowedOrigins: []string{"http://localhost:5173"}},
		CacheProvider:   memCache,
		SessionManager:  session.NewManager(session.NewMemoryStore(), false),
		CatalogService:  services.NewCatalogService(fc, fakePackages{fc}, fakeRecipes{fc}, nil, nil, nil, logger),
		CartService:     carts,
		GiftService:     services.NewGiftService(fakePackages{fc}, engine, logger),
		CheckoutService: services.NewCheckoutService(payments, orders, carts, nil, logger),
		StripeRouter:    NewStripeEventRouter(events, nil, logger),
		Logger:          logger,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return &testEnv{handlers: h, payments: payments, orders: orders, events: events}
}

func jsonRequest(method, target, body string, cookies ...*http.Cookie) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// serve runs fn behind the session middleware.
func (e *testEnv) serve(fn http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handlers.SessionMiddleware(fn).ServeHTTP(rec, req)
	return rec
}
