package handler

import (
	"net/http"

	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/internal/service"
)

// AuthHandler handles authentication HTTP endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	user, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		Error(w, err)
		return
	}

	msg := "User registered successfully!"
	if !user.IsVerified {
		msg = "User registered. Check your email for the verification code."
	}
	Success(w, http.StatusCreated, M{"message": msg, "user": user})
}

// VerifyOTP handles POST /api/auth/verify-otp.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	resp, err := h.auth.VerifyOTP(r.Context(), &req)
	if err != nil {
		Error(w, err)
		return
	}

	Success(w, http.StatusOK, M{"message": "Account verified successfully", "token": resp.Token, "user": resp.User})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	resp, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		Error(w, err)
		return
	}

	Success(w, http.StatusOK, M{"message": "Login success", "token": resp.Token, "user": resp.User})
}

// ForgotPassword handles POST /api/auth/forget-password.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), &req); err != nil {
		Error(w, err)
		return
	}

	Success(w, http.StatusOK, M{"message": "If the account exists, a reset code has been sent"})
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), &req); err != nil {
		Error(w, err)
		return
	}

	Success(w, http.StatusOK, M{"message": "Password reset successfully"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), p.ID)
	if err != nil {
		Error(w, err)
		return
	}

	Success(w, http.StatusOK, M{"user": user})
}
