package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/internal/service"
)

// UserHandler serves the admin account screens.
type UserHandler struct {
	auth          *service.AuthService
	subscriptions *service.SubscriptionService
}

func NewUserHandler(auth *service.AuthService, subscriptions *service.SubscriptionService) *UserHandler {
	return &UserHandler{auth: auth, subscriptions: subscriptions}
}

// List handles GET /api/users. ?role=admin|customer narrows the result.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		Error(w, err)
		return
	}

	if role := r.URL.Query().Get("role"); role != "" {
		kept := users[:0]
		for _, u := range users {
			if u.Role == role {
				kept = append(kept, u)
			}
		}
		users = kept
	}
	Success(w, http.StatusOK, M{"count": len(users), "users": users})
}

// Get handles GET /api/users/{id}: the profile plus the customer's
// subscription instances.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	admin, ok := caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	user, err := h.auth.GetUserByID(r.Context(), id)
	if err != nil {
		Error(w, err)
		return
	}
	subs, err := h.subscriptions.ListByUser(r.Context(), admin, id)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"user": user, "subscriptions": subs})
}

// Create handles POST /api/users. Accounts created here skip e-mail
// verification.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	user, err := h.auth.CreateUser(r.Context(), &req)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusCreated, M{"message": "User created", "user": user})
}

// Delete handles DELETE /api/users/{id}. Admin accounts cannot be removed.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"message": "User deleted"})
}
