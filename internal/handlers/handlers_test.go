package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kmetijamarosa/storefront/internal/config"
	"github.com/kmetijamarosa/storefront/internal/session"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestNew_RequiresConfigAndSessions(t *testing.T) {
	t.Parallel()

	if _, err := New(Dependencies{SessionManager: session.NewManager(session.NewMemoryStore(), false)}); err == nil {
		t.Fatal("expected error without config")
	}
	if _, err := New(Dependencies{Config: &config.Config{}}); err == nil {
		t.Fatal("expected error without session manager")
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		db   Pinger
		want int
	}{
		{name: "no database", want: http.StatusOK},
		{name: "healthy database", db: stubPinger{}, want: http.StatusOK},
		{name: "unreachable database", db: stubPinger{err: errors.New("connection refused")}, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := &Handlers{db: tt.db, logger: discardLogger()}
			rec := httptest.NewRecorder()
			h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestSessionMetrics_ReusesRequestMeter(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	var outer, inner *http.Request
	chain := env.handlers.MetricsContext(env.handlers.SessionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		outer = r
		env.handlers.SessionMetrics(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			inner = r
		})).ServeHTTP(w, r)
	})))

	chain.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	if outer == nil || inner != outer {
		t.Fatal("SessionMetrics should tag the existing request meter without a new context")
	}
}
