package middleware

import (
	"net/http"
	"strings"

	"github.com/tailorone/backend/internal/contextkeys"
	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/internal/handler"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(token string) (*domain.JWTClaims, error)
}

// Auth creates a JWT authentication middleware.
func Auth(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				handler.Fail(w, http.StatusUnauthorized, "no token provided")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				handler.Fail(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			claims, err := verifier.VerifyToken(parts[1])
			if err != nil {
				handler.Fail(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := contextkeys.WithPrincipal(r.Context(), domain.Principal{
				ID:    claims.Sub,
				Email: claims.Email,
				Role:  claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
