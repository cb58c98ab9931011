package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kmetijamarosa/storefront/internal/auth"
	"github.com/kmetijamarosa/storefront/internal/cache"
	"github.com/kmetijamarosa/storefront/internal/config"
	"github.com/kmetijamarosa/storefront/internal/logging"
	"github.com/kmetijamarosa/storefront/internal/metrics"
	"github.com/kmetijamarosa/storefront/internal/services"
	"github.com/kmetijamarosa/storefront/internal/session"
)

const maxRequestBodyBytes = 1 << 20 // 1 MB

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers provides the storefront's JSON API.
type Handlers struct {
	config          *config.Config
	db              Pinger
	cacheProvider   cache.Provider
	sessionManager  *session.Manager
	catalogService  *services.CatalogService
	cartService     *services.CartService
	giftService     *services.GiftService
	checkoutService *services.CheckoutService
	emailService    *services.EmailService
	stripeRouter    *StripeEventRouter
	adminService    *services.AdminService
	verifier        *auth.Verifier
	metrics         *metrics.Storefront
	logger          *slog.Logger
}

// Dependencies wires collaborators into Handlers. Only Config and SessionManager are
// required; endpoints whose collaborator is missing answer 500.
type Dependencies struct {
	Config          *config.Config
	DB              Pinger
	CacheProvider   cache.Provider
	SessionManager  *session.Manager
	CatalogService  *services.CatalogService
	CartService     *services.CartService
	GiftService     *services.GiftService
	CheckoutService *services.CheckoutService
	EmailService    *services.EmailService
	StripeRouter    *StripeEventRouter
	AdminService    *services.AdminService
	Verifier        *auth.Verifier
	Metrics         *metrics.Storefront
	Logger          *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := logging.OrDiscard(deps.Logger)

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.SessionManager == nil {
		return nil, fmt.Errorf("handlers dependencies: sessionManager is required")
	}

	return &Handlers{
		config:          deps.Config,
		db:              deps.DB,
		cacheProvider:   deps.CacheProvider,
		sessionManager:  deps.SessionManager,
		catalogService:  deps.CatalogService,
		cartService:     deps.CartService,
		giftService:     deps.GiftService,
		checkoutService: deps.CheckoutService,
		emailService:    deps.EmailService,
		stripeRouter:    deps.StripeRouter,
		adminService:    deps.AdminService,
		verifier:        deps.Verifier,
		metrics:         deps.Metrics,
		logger:          logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			logger.Error("database health check failed", "error", err)
			h.writeError(w, r, http.StatusServiceUnavailable, "Database unhealthy")
			return
		}
	}

	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// SessionMiddleware adds session data to the request context
func (h *Handlers) SessionMiddleware(next http.Handler) http.Handler {
	return h.sessionManager.Middleware(next)
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

// notConfigured answers 500 when an endpoint's collaborator was not wired.
func (h *Handlers) notConfigured(w http.ResponseWriter, r *http.Request, what string) {
	h.loggerFromContext(r.Context()).Error("handler collaborator not configured", "collaborator", what)
	h.writeError(w, r, http.StatusInternalServerError, what+" is not configured")
}
