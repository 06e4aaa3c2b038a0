package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tailorone/backend/internal/contextkeys"
	"github.com/tailorone/backend/internal/domain"
)

// M is a response payload merged into the success envelope.
type M map[string]interface{}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// Success writes {"success": true, ...payload}.
func Success(w http.ResponseWriter, status int, payload M) {
	body := M{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	JSON(w, status, body)
}

// Fail writes {"success": false, "message": msg}.
func Fail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, M{"success": false, "message": msg})
}

// Error writes an error response, using AppError status codes when available.
func Error(w http.ResponseWriter, err error) {
	if appErr, ok := domain.AsAppError(err); ok {
		if appErr.Code >= http.StatusInternalServerError {
			slog.Error(appErr.Message, "error", appErr.Err)
		}
		Fail(w, appErr.Code, appErr.Message)
		return
	}
	slog.Error("unhandled error", "error", err)
	Fail(w, http.StatusInternalServerError, "internal server error")
}

// DecodeJSON decodes a JSON request body into the given struct.
func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrBadRequest("invalid JSON body")
	}
	return nil
}

// caller returns the authenticated principal, writing a 401 when absent.
func caller(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := contextkeys.PrincipalFrom(r.Context())
	if !ok {
		Fail(w, http.StatusUnauthorized, "unauthorized")
	}
	return p, ok
}
