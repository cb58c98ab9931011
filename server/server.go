package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kmetijamarosa/storefront/internal/config"
	"github.com/kmetijamarosa/storefront/internal/handlers"
)

type Server struct {
	cfg            *config.Config
	logger         *slog.Logger
	handlers       *handlers.Handlers
	metricsHandler http.Handler
	httpServer     *http.Server
}

// New builds the HTTP server. metricsHandler serves /metrics and may be nil.
func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers, metricsHandler http.Handler) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:            cfg,
		logger:         logger,
		handlers:       h,
		metricsHandler: metricsHandler,
	}

	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// payment intent creation and image probing both call out
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return s, nil
}

// Handler returns the root handler: CORS wraps the router so preflight requests are
// answered before route matching.
func (s *Server) Handler() http.Handler {
	return s.handlers.CORS()(s.buildRouter())
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.SecurityHeaders)
	r.Use(h.MetricsContext)
	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")
	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler).Methods("GET").Name("metrics")
	}
	r.HandleFunc("/webhooks/stripe", h.StripeWebhook).Methods("POST").Name("webhooks.stripe")

	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.SessionMiddleware)
	api.Use(h.SessionMetrics)
	api.HandleFunc("/products", h.ListProducts).Methods("GET").Name("api.products")
	api.HandleFunc("/products/{id:[0-9]+}", h.GetProduct).Methods("GET").Name("api.products.get")
	api.HandleFunc("/gift-packages", h.ListGiftPackages).Methods("GET").Name("api.gift_packages")
	api.HandleFunc("/recipes", h.ListRecipes).Methods("GET").Name("api.recipes")
	api.HandleFunc("/recipes/{id:[0-9]+}", h.GetRecipe).Methods("GET").Name("api.recipes.get")

	api.HandleFunc("/cart", h.GetCart).Methods("GET").Name("api.cart")
	api.HandleFunc("/cart", h.ClearCart).Methods("DELETE").Name("api.cart.clear")
	api.HandleFunc("/cart/items", h.AddCartItem).Methods("POST").Name("api.cart.items.add")
	api.HandleFunc("/cart/items", h.UpdateCartItem).Methods("PATCH").Name("api.cart.items.update")
	api.HandleFunc("/cart/items/{productId:[0-9]+}/{optionId}", h.RemoveCartItem).Methods("DELETE").Name("api.cart.items.remove")
	api.HandleFunc("/cart/gifts", h.AddCartGift).Methods("POST").Name("api.cart.gifts.add")
	api.HandleFunc("/cart/gifts/{id}", h.RemoveCartGift).Methods("DELETE").Name("api.cart.gifts.remove")
	api.HandleFunc("/gifts/preview", h.PreviewGift).Methods("POST").Name("api.gifts.preview")

	api.HandleFunc("/checkout/payment-intent", h.CreatePaymentIntent).Methods("POST").Name("api.checkout.payment_intent")
	api.HandleFunc("/email/send", h.SendEmail).Methods("POST").Name("api.email.send")
	api.HandleFunc("/consent", h.GetConsent).Methods("GET").Name("api.consent")
	api.HandleFunc("/consent", h.UpdateConsent).Methods("PUT").Name("api.consent.update")
	api.HandleFunc("/discount-banner", h.GetDiscountBanner).Methods("GET").Name("api.discount_banner")
	api.HandleFunc("/discount-banner/shown", h.MarkDiscountBannerShown).Methods("POST").Name("api.discount_banner.shown")

	admin := r.PathPrefix("/admin/api").Subrouter()
	admin.Use(h.RequireAdmin)
	admin.HandleFunc("/products", h.AdminListProducts).Methods("GET").Name("admin.products")
	admin.HandleFunc("/products", h.AdminCreateProduct).Methods("POST").Name("admin.products.create")
	admin.HandleFunc("/products/{id:[0-9]+}", h.AdminUpdateProduct).Methods("PUT").Name("admin.products.update")
	admin.HandleFunc("/products/{id:[0-9]+}", h.AdminDeleteProduct).Methods("DELETE").Name("admin.products.delete")
	admin.HandleFunc("/recipes", h.AdminCreateRecipe).Methods("POST").Name("admin.recipes.create")
	admin.HandleFunc("/recipes/{id:[0-9]+}", h.AdminUpdateRecipe).Methods("PUT").Name("admin.recipes.update")
	admin.HandleFunc("/recipes/{id:[0-9]+}", h.AdminDeleteRecipe).Methods("DELETE").Name("admin.recipes.delete")

	return r
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusNotFound, "Not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func writeStatus(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
