package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY,required" validate:"required"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required" validate:"required"`

	EmailProvider         string `env:"EMAIL_PROVIDER" envDefault:"appsscript" validate:"oneof=appsscript resend"`
	EmailEndpointURL      string `env:"EMAIL_ENDPOINT_URL" validate:"omitempty,url"`
	ResendAPIKey          string `env:"RESEND_API_KEY"`
	EmailFrom             string `env:"EMAIL_FROM" envDefault:"Kmetija Maroša <info@kmetija-marosa.si>" validate:"required"`
	ShopNotificationEmail string `env:"SHOP_NOTIFICATION_EMAIL" envDefault:"info@kmetija-marosa.si" validate:"required,email"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	SessionStoreProvider  string `env:"SESSION_STORE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis,required_if=SessionStoreProvider redis"`

	SupabaseJWTSecret string `env:"SUPABASE_JWT_SECRET"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	ImageBaseURL          string   `env:"IMAGE_BASE_URL" validate:"omitempty,url"`
	ImageAllowedDomains   []string `env:"IMAGE_ALLOWED_DOMAINS" envSeparator:","`
	ImageEnforceAllowlist bool     `env:"IMAGE_ENFORCE_ALLOWLIST" envDefault:"true"`

	ShippingFlatRate      decimal.Decimal `env:"SHIPPING_FLAT_RATE" envDefault:"3.90"`
	FreeShippingThreshold decimal.Decimal `env:"FREE_SHIPPING_THRESHOLD" envDefault:"30.00"`

	SentryDSN string `env:"SENTRY_DSN"`
	BaseURL   string `env:"BASE_URL" validate:"omitempty,url"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	Port      string     `env:"PORT" envDefault:"8080"`
}

var configValidator = validator.New()

// Load reads configuration from the environment. Values in a .env file in the working
// directory fill in anything the environment does not already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config

	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	switch c.EmailProvider {
	case "appsscript":
		if strings.TrimSpace(c.EmailEndpointURL) == "" {
			return fmt.Errorf("EMAIL_ENDPOINT_URL is required for the appsscript email provider")
		}
	case "resend":
		if strings.TrimSpace(c.ResendAPIKey) == "" {
			return fmt.Errorf("RESEND_API_KEY is required for the resend email provider")
		}
	}

	if c.ShippingFlatRate.IsNegative() || c.FreeShippingThreshold.IsNegative() {
		return fmt.Errorf("SHIPPING_FLAT_RATE and FREE_SHIPPING_THRESHOLD must not be negative")
	}

	if !strings.HasPrefix(strings.TrimSpace(c.StripeSecretKey), "sk_") && !strings.HasPrefix(strings.TrimSpace(c.StripeSecretKey), "rk_") {
		return fmt.Errorf("STRIPE_SECRET_KEY must be a secret or restricted key")
	}

	baseURL := strings.TrimSpace(c.BaseURL)
	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil || parsed.Hostname() == "" {
			return fmt.Errorf("BASE_URL must be a valid absolute URL")
		}
		if !isLocalHost(parsed.Hostname()) && !strings.EqualFold(parsed.Scheme, "https") {
			return fmt.Errorf("BASE_URL must use https outside local development")
		}
	}

	for _, origin := range c.CORSAllowedOrigins {
		if strings.TrimSpace(origin) == "*" {
			return fmt.Errorf("CORS_ALLOWED_ORIGINS must list explicit origins")
		}
	}

	return nil
}

// AdminEnabled reports whether the admin API can verify tokens.
func (c *Config) AdminEnabled() bool {
	return strings.TrimSpace(c.SupabaseJWTSecret) != ""
}

// SecureCookies reports whether session cookies should carry the Secure flag.
func (c *Config) SecureCookies() bool {
	parsed, err := url.Parse(strings.TrimSpace(c.BaseURL))
	if err != nil || parsed.Hostname() == "" {
		return false
	}
	return strings.EqualFold(parsed.Scheme, "https")
}

func isLocalHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
