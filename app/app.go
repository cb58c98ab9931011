package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/kmetijamarosa/storefront/internal/auth"
	"github.com/kmetijamarosa/storefront/internal/cache"
	"github.com/kmetijamarosa/storefront/internal/cart"
	"github.com/kmetijamarosa/storefront/internal/config"
	"github.com/kmetijamarosa/storefront/internal/db"
	"github.com/kmetijamarosa/storefront/internal/email"
	"github.com/kmetijamarosa/storefront/internal/handlers"
	"github.com/kmetijamarosa/storefront/internal/i18n"
	"github.com/kmetijamarosa/storefront/internal/images"
	"github.com/kmetijamarosa/storefront/internal/logging"
	"github.com/kmetijamarosa/storefront/internal/metrics"
	"github.com/kmetijamarosa/storefront/internal/observability"
	"github.com/kmetijamarosa/storefront/internal/services"
	"github.com/kmetijamarosa/storefront/internal/session"
	"github.com/kmetijamarosa/storefront/internal/stripe"
)

const (
	imageProbeTimeout  = 5 * time.Second
	outboundAPITimeout = 30 * time.Second
)

type App struct {
	Config         *config.Config
	Logger         *slog.Logger
	DB             *pgxpool.Pool
	CacheProvider  cache.Provider
	SessionManager *session.Manager
	Handlers       *handlers.Handlers
	MetricsHandler http.Handler
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := initSentry(cfg); err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	// Prices and totals go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	sessionStore, err := session.NewStore(startupCtx, session.Config{
		Provider:              cfg.SessionStoreProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}
	sessionManager := session.NewManager(sessionStore, cfg.SecureCookies())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storefrontMetrics := metrics.New(registry)

	emailProvider, err := email.NewProvider(email.Config{
		Provider:    cfg.EmailProvider,
		EndpointURL: cfg.EmailEndpointURL,
		APIKey:      cfg.ResendAPIKey,
		From:        cfg.EmailFrom,
		HTTPClient:  observability.NewHTTPClient(outboundAPITimeout),
	})
	if err != nil {
		closeSessionManager(logger, sessionManager)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize email provider: %w", err)
	}
	renderer, err := email.NewRenderer(cfg.ShopNotificationEmail)
	if err != nil {
		closeSessionManager(logger, sessionManager)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}

	productStore := db.NewProductStore(database)
	giftPackageStore := db.NewGiftPackageStore(database)
	recipeStore := db.NewRecipeStore(database)
	orderStore := db.NewOrderStore(database)

	resolver := images.NewResolver(images.ResolverConfig{
		BaseURL:          cfg.ImageBaseURL,
		AllowedDomains:   cfg.ImageAllowedDomains,
		EnforceAllowlist: cfg.ImageEnforceAllowlist,
	}, logger.With("component", "image_resolver"))
	imageValidator := images.NewValidator(
		resolver,
		cacheProvider,
		observability.NewHTTPClient(imageProbeTimeout),
		images.ValidatorConfig{SiteHost: siteHost(cfg.BaseURL)},
		storefrontMetrics,
		logger,
	)

	engine := cart.NewEngine(productStore, cart.ShippingPolicy{
		FlatRate:      cfg.ShippingFlatRate,
		FreeThreshold: cfg.FreeShippingThreshold,
	}, storefrontMetrics, logger.With("component", "cart_engine"))

	paymentsClient := stripe.NewClient(cfg.StripeSecretKey, stripe.ClientOptions{
		HTTPClient: observability.NewHTTPClient(outboundAPITimeout),
	})

	catalogService := services.NewCatalogService(productStore, giftPackageStore, recipeStore, i18n.Default(), resolver, imageValidator, logger.With("component", "catalog_service"))
	cartService := services.NewCartService(productStore, engine, logger.With("component", "cart_service"))
	giftService := services.NewGiftService(giftPackageStore, engine, logger.With("component", "gift_service"))
	checkoutService := services.NewCheckoutService(paymentsClient, orderStore, cartService, storefrontMetrics, logger.With("component", "checkout_service"))
	emailService := services.NewEmailService(emailProvider, renderer, storefrontMetrics, logger.With("component", "email_service"))
	stripeService := services.NewStripeService(orderStore, emailService, logger.With("component", "stripe_service"))
	stripeRouter := handlers.NewStripeEventRouter(stripeService, storefrontMetrics, logger.With("component", "stripe_router"))
	adminService := services.NewAdminService(productStore, recipeStore, nil, imageValidator, logger.With("component", "admin_service"))

	var verifier *auth.Verifier
	if cfg.AdminEnabled() {
		verifier = auth.NewVerifier(cfg.SupabaseJWTSecret, auth.DefaultAudience)
	} else {
		logger.Warn("SUPABASE_JWT_SECRET not set, admin API disabled")
	}

	h, err := handlers.New(handlers.Dependencies{
		Config:          cfg,
		DB:              database,
		CacheProvider:   cacheProvider,
		SessionManager:  sessionManager,
		CatalogService:  catalogService,
		CartService:     cartService,
		GiftService:     giftService,
		CheckoutService: checkoutService,
		EmailService:    emailService,
		StripeRouter:    stripeRouter,
		AdminService:    adminService,
		Verifier:        verifier,
		Metrics:         storefrontMetrics,
		Logger:          logger,
	})
	if err != nil {
		closeSessionManager(logger, sessionManager)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:         cfg,
		Logger:         logger,
		DB:             database,
		CacheProvider:  cacheProvider,
		SessionManager: sessionManager,
		Handlers:       h,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	}, nil
}

// Close releases every resource and returns all close errors combined.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var err error
	if a.SessionManager != nil {
		err = multierr.Append(err, a.SessionManager.Close())
	}
	if a.CacheProvider != nil {
		err = multierr.Append(err, a.CacheProvider.Close())
	}
	if a.DB != nil {
		a.DB.Close()
	}
	sentry.Flush(2 * time.Second)
	return err
}

func initSentry(cfg *config.Config) error {
	if strings.TrimSpace(cfg.SentryDSN) == "" {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		EnableTracing:    true,
		TracesSampleRate: 0.2,
		EnableLogs:       true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var console slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.LogFormat)) {
	case "json":
		console = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
	default:
		console = tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel})
	}

	if strings.TrimSpace(cfg.SentryDSN) == "" {
		return slog.New(console)
	}
	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelInfo},
	}.NewSentryHandler(context.Background())
	return slog.New(logging.MultiHandler(console, sentryHandler))
}

func siteHost(baseURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

func closeSessionManager(logger *slog.Logger, manager *session.Manager) {
	if manager == nil {
		return
	}
	if err := manager.Close(); err != nil && logger != nil {
		logger.Warn("failed to close session manager", "error", err)
	}
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
