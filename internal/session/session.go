// Package session keeps per-visitor state (cart, consent) server-side behind a cookie.
package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kmetijamarosa/storefront/internal/cart"
	"github.com/kmetijamarosa/storefront/internal/consent"
)

const (
	cookieName = "marosa_session"
	ttl        = 30 * 24 * time.Hour
)

// Data is the state stored for one visitor.
type Data struct {
	Cart                cart.Cart           `json:"cart"`
	Consent             consent.Preferences `json:"consent"`
	DiscountBannerShown bool                `json:"discount_banner_shown"`
	CreatedAt           int64               `json:"created_at"`
}

// NewData returns the state for a first-time visitor.
func NewData() *Data {
	return &Data{
		Consent:   consent.Default(),
		CreatedAt: time.Now().Unix(),
	}
}

// ApplyConsent stores new preferences and drops state that a revoked category covered.
func (d *Data) ApplyConsent(next consent.Preferences, now time.Time) []consent.Category {
	updated, revoked := consent.Update(d.Consent, next, now)
	d.Consent = updated
	if !updated.Allows(consent.Functional) {
		d.DiscountBannerShown = false
	}
	return revoked
}

// MarkDiscountBannerShown records that the visitor has seen the discount banner. The flag
// is functional storage and is refused without functional consent.
func (d *Data) MarkDiscountBannerShown() bool {
	if !d.Consent.Allows(consent.Functional) {
		return false
	}
	d.DiscountBannerShown = true
	return true
}

// Manager handles session creation, validation, and storage
type Manager struct {
	store  Store
	secure bool
}

// Store defines the interface for session storage
type Store interface {
	Get(ctx context.Context, key string) (*Data, bool)
	Set(ctx context.Context, key string, data *Data, ttl time.Duration) error
	Delete(ctx context.Context, key string)
	Close() error
}

func NewManager(store Store, secure bool) *Manager {
	return &Manager{
		store:  store,
		secure: secure,
	}
}

func (m *Manager) Close() error {
	if m == nil || m.store == nil {
		return nil
	}
	return m.store.Close()
}

// Load returns the visitor's session, or fresh data and an empty id when there is none yet.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Data, string) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return NewData(), ""
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return NewData(), ""
	}
	data, ok := m.store.Get(ctx, cookie.Value)
	if !ok || data == nil {
		return NewData(), ""
	}
	return data, cookie.Value
}

// Save persists data and refreshes the cookie. An empty id starts a new session. No cookie
// is written when the store rejects the data.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, id string, data *Data) (string, error) {
	if ctx == nil {
		return "", fmt.Errorf("context is required")
	}
	if data == nil {
		return "", fmt.Errorf("session data is required")
	}
	if id == "" {
		id = generateSessionID()
	}

	if err := m.store.Set(ctx, id, cloneData(data), ttl); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

// Destroy removes the session and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		m.store.Delete(ctx, cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func generateSessionID() string {
	return uuid.NewString()
}

func cloneData(data *Data) *Data {
	if data == nil {
		return nil
	}
	cloned := *data
	cloned.Cart.Items = append([]cart.LineItem(nil), data.Cart.Items...)
	cloned.Cart.Gifts = make([]cart.GiftLineItem, len(data.Cart.Gifts))
	for i, gift := range data.Cart.Gifts {
		gift.Items = append([]cart.GiftItem(nil), gift.Items...)
		cloned.Cart.Gifts[i] = gift
	}
	return &cloned
}
