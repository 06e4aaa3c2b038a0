package contextkeys

import (
	"context"

	"github.com/tailorone/backend/internal/domain"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// UserID is the context key for the authenticated user's ID.
	UserID contextKey = "userID"
	// UserEmail is the context key for the authenticated user's email.
	UserEmail contextKey = "userEmail"
	// UserRole is the context key for the authenticated user's role.
	UserRole contextKey = "userRole"
)

// WithPrincipal stores the authenticated caller in ctx.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	ctx = context.WithValue(ctx, UserID, p.ID)
	ctx = context.WithValue(ctx, UserEmail, p.Email)
	return context.WithValue(ctx, UserRole, p.Role)
}

// PrincipalFrom returns the caller stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	id, ok := ctx.Value(UserID).(string)
	if !ok || id == "" {
		return domain.Principal{}, false
	}
	email, _ := ctx.Value(UserEmail).(string)
	role, _ := ctx.Value(UserRole).(string)
	return domain.Principal{ID: id, Email: email, Role: role}, true
}
