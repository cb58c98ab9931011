package images

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kmetijamarosa/storefront/internal/cache"
	"github.com/kmetijamarosa/storefront/internal/logging"
	"github.com/kmetijamarosa/storefront/internal/metrics"
)

const (
	DefaultProbeTimeout = 5 * time.Second
	DefaultValidTTL     = 6 * time.Hour
	DefaultInvalidTTL   = 10 * time.Minute
	sniffLimit          = 3072
)

type ValidatorConfig struct {
	// SiteHost is the storefront's own host; URLs on it are treated like root-relative paths.
	SiteHost string
	Timeout  time.Duration
	TTL      time.Duration
}

// Validator reports whether an image URL points at something a browser can render.
// Remote results are memoized in the cache.
type Validator struct {
	resolver *Resolver
	cache    cache.Provider
	client   *http.Client
	siteHost string
	timeout  time.Duration
	ttl      time.Duration
	metrics  *metrics.Storefront
	logger   *slog.Logger
}

func NewValidator(resolver *Resolver, provider cache.Provider, client *http.Client, cfg ValidatorConfig, m *metrics.Storefront, logger *slog.Logger) *Validator {
	v := &Validator{
		resolver: resolver,
		cache:    provider,
		client:   client,
		siteHost: strings.ToLower(cfg.SiteHost),
		timeout:  cfg.Timeout,
		ttl:      cfg.TTL,
		metrics:  m,
		logger:   logging.OrDiscard(logger).With("component", "image_validator"),
	}
	if v.client == nil {
		v.client = http.DefaultClient
	}
	if v.timeout <= 0 {
		v.timeout = DefaultProbeTimeout
	}
	if v.ttl <= 0 {
		v.ttl = DefaultValidTTL
	}
	return v
}

// Validate never returns an error: failures of any kind mean "not valid". Negative results
// are cached briefly and a cancelled context caches nothing.
func (v *Validator) Validate(ctx context.Context, imageURL string) bool {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" || v.resolver.IsPlaceholder(imageURL) {
		return false
	}
	if v.isLocal(imageURL) {
		return true
	}

	key := cache.ImageValidKey(imageURL)
	if v.cache != nil {
		if cached, err := v.cache.Get(ctx, key); err == nil {
			return cached == "1"
		} else if !errors.Is(err, cache.ErrNotFound) {
			v.logger.Debug("image cache lookup failed", "error", err)
		}
	}

	valid := v.probe(ctx, imageURL)
	if ctx.Err() != nil {
		// The caller gave up; the result says nothing about the image.
		return false
	}
	v.metrics.IncImageValidation(valid)

	if v.cache != nil {
		value, ttl := "0", min(v.ttl, DefaultInvalidTTL)
		if valid {
			value, ttl = "1", v.ttl
		}
		if err := v.cache.Set(ctx, key, value, ttl); err != nil {
			v.logger.Debug("image cache store failed", "error", err)
		}
	}
	return valid
}

func (v *Validator) isLocal(imageURL string) bool {
	if strings.HasPrefix(imageURL, "/") && !strings.HasPrefix(imageURL, "//") {
		return true
	}
	if v.siteHost == "" {
		return false
	}
	u, err := url.Parse(imageURL)
	return err == nil && strings.EqualFold(u.Hostname(), v.siteHost)
}

func (v *Validator) probe(ctx context.Context, imageURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "image/*")

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Debug("image probe failed", "url", imageURL, "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		v.logger.Debug("image probe returned non-success status", "url", imageURL, "status", resp.StatusCode)
		return false
	}

	head, err := io.ReadAll(io.LimitReader(resp.Body, sniffLimit))
	if err != nil && len(head) == 0 {
		return false
	}
	detected := mimetype.Detect(head)
	if !strings.HasPrefix(detected.String(), "image/") {
		v.logger.Debug("image probe returned non-image content", "url", imageURL, "mime", detected.String())
		return false
	}
	return true
}
