package middleware

import (
	"net/http"

	"github.com/tailorone/backend/internal/contextkeys"
	"github.com/tailorone/backend/internal/handler"
)

// AdminOnly middleware ensures the user has the admin role.
// Must be used AFTER Auth middleware.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := contextkeys.PrincipalFrom(r.Context())
		if !ok || !p.IsAdmin() {
			handler.Fail(w, http.StatusForbidden, "Access denied. Admins only.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
