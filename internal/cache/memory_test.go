package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryProviderExpiry(t *testing.T) {
	t.Parallel()

	m, err := NewMemoryProvider(0)
	if err != nil {
		t.Fatalf("NewMemoryProvider() error = %v", err)
	}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	if err := m.Set(ctx, "a", "1", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := m.Set(ctx, "forever", "x", 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, err := m.Get(ctx, "a"); err != nil || got != "1" {
		t.Fatalf("Get() = %q, %v, want %q", got, err, "1")
	}

	now = now.Add(2 * time.Minute)
	if _, err := m.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired entry, got %v", err)
	}
	if got, _ := m.Get(ctx, "forever"); got != "x" {
		t.Fatalf("Get(forever) = %q, want %q", got, "x")
	}
}

func TestMemoryProviderEvictsOldest(t *testing.T) {
	t.Parallel()

	m, err := NewMemoryProvider(2)
	if err != nil {
		t.Fatalf("NewMemoryProvider() error = %v", err)
	}
	ctx := context.Background()
	_ = m.Set(ctx, "a", "1", time.Hour)
	_ = m.Set(ctx, "b", "2", time.Hour)
	_ = m.Set(ctx, "c", "3", time.Hour)

	if _, err := m.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected oldest entry to be evicted, got %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}

	_ = m.Delete(ctx, "b")
	if _, err := m.Get(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted entry to be gone, got %v", err)
	}
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	if _, err := NewProvider(Config{Provider: "memcached"}); err == nil {
		t.Fatalf("expected error for unsupported provider")
	}
	p, err := NewProvider(Config{})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if _, ok := p.(*MemoryProvider); !ok {
		t.Fatalf("default provider = %T, want *MemoryProvider", p)
	}
}

func TestKeys(t *testing.T) {
	t.Parallel()

	if got := WebhookKey("stripe", "evt_1"); got != "webhook:stripe:evt_1" {
		t.Fatalf("WebhookKey() = %q", got)
	}
	if got := GalleryKey(7, "/images/a.jpg"); got != "image:gallery:7:/images/a.jpg" {
		t.Fatalf("GalleryKey() = %q", got)
	}
}
