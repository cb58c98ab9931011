// Package cache stores short-lived string values: image validation results, resolved
// galleries and processed webhook event ids.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("key not found")

// Provider is a string key/value store with per-entry expiry.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
	MemorySize            int
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider(cfg.MemorySize)
	case "redis":
		return NewRedisProvider(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

func WebhookKey(source, eventID string) string {
	return fmt.Sprintf("webhook:%s:%s", source, eventID)
}

func ImageValidKey(url string) string {
	return "image:valid:" + url
}

// GalleryKey scopes a gallery to its product so products sharing a main image, or
// having none, never read each other's additional images.
func GalleryKey(productID int64, mainImage string) string {
	return fmt.Sprintf("image:gallery:%d:%s", productID, mainImage)
}
