// Package auth verifies Supabase access tokens for the admin API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kmetijamarosa/storefront/internal/logging"
)

const (
	AdminRole       = "admin"
	DefaultAudience = "authenticated"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrNotAdmin     = errors.New("admin role required")
)

var signingMethod = jwt.SigningMethodHS256

// Claims is the subset of a Supabase access token the admin API reads.
type Claims struct {
	Email       string         `json:"email"`
	Role        string         `json:"role"`
	AppMetadata map[string]any `json:"app_metadata"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether app_metadata.role is "admin". user_metadata is writable by the
// user and is never consulted.
func (c *Claims) IsAdmin() bool {
	if c == nil {
		return false
	}
	role, _ := c.AppMetadata["role"].(string)
	return role == AdminRole
}

type Verifier struct {
	secret   []byte
	audience string
}

func NewVerifier(secret, audience string) *Verifier {
	if audience == "" {
		audience = DefaultAudience
	}
	return &Verifier{secret: []byte(secret), audience: audience}
}

// Verify checks signature, expiry and audience.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			if token.Method != signingMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyAdmin verifies the token and requires the admin role. Non-admin claims are
// returned alongside ErrNotAdmin.
func (v *Verifier) VerifyAdmin(tokenString string) (*Claims, error) {
	claims, err := v.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin() {
		return claims, ErrNotAdmin
	}
	return claims, nil
}

func BearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

type claimsContextKey struct{}

func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey{}).(*Claims)
	return claims
}

// RequireAdmin rejects requests without a valid admin token: 401 for missing or invalid
// tokens, 403 for valid tokens without the admin role. onError writes the response.
func (v *Verifier) RequireAdmin(logger *slog.Logger, onError func(w http.ResponseWriter, status int, message string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logging.FromContext(r.Context(), logger)

			token, err := BearerToken(r)
			if err != nil {
				onError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			claims, err := v.VerifyAdmin(token)
			if errors.Is(err, ErrNotAdmin) {
				log.Warn("non-admin token rejected", "subject", claims.subject())
				onError(w, http.StatusForbidden, "forbidden")
				return
			}
			if err != nil {
				log.Warn("invalid admin token", "error", err)
				onError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (c *Claims) subject() string {
	if c == nil {
		return ""
	}
	return c.Subject
}
