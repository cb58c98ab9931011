package handlers

import (
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go/attribute"

	"github.com/kmetijamarosa/storefront/internal/observability"
	"github.com/kmetijamarosa/storefront/internal/session"
)

// MetricsContext adds a request-scoped, pre-attributed meter to the context.
func (h *Handlers) MetricsContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestIDFromRequest(r)

		attrs := []attribute.Builder{
			attribute.String("http.request_id", requestID),
			attribute.String("http.method", r.Method),
			attribute.String("network.client.ip", clientIP(r)),
		}
		if route := routeLabel(r); route != "" {
			attrs = append(attrs, attribute.String("http.route", route))
		}
		if userAgent := strings.TrimSpace(r.UserAgent()); userAgent != "" {
			attrs = append(attrs, attribute.String("http.user_agent", userAgent))
		}
		if r.ContentLength >= 0 {
			attrs = append(attrs, attribute.Int64("http.request_content_length", r.ContentLength))
		}

		next.ServeHTTP(w, r.WithContext(observability.NewRequestMeter(ctx, attrs...)))
	})
}

// SessionMetrics tags the request meter with the visitor's session and cart size. It
// runs after SessionMiddleware and leaves the request context untouched.
func (h *Handlers) SessionMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if state := session.FromContext(r.Context()); state != nil && state.Data != nil {
			attrs := []attribute.Builder{
				attribute.Int("cart.items", state.Data.Cart.Count()),
				attribute.Int("cart.gifts", len(state.Data.Cart.Gifts)),
			}
			if state.ID != "" {
				attrs = append(attrs, attribute.String("session.id", state.ID))
			}
			observability.AddRequestAttributes(r.Context(), attrs...)
		}
		next.ServeHTTP(w, r)
	})
}
