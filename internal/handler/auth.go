package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/course-tracker/internal/domain"
)

// AuthHandler exposes the identity store's session operations.
type AuthHandler struct{}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// HandleSignup registers an account on the requesting device and logs it in.
// POST /api/auth/signup
// Request:  {"username":"...","email":"...","password":"..."}
// Response: 201 {"user": {...}}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}

	user, err := StoreFromContext(r.Context()).Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "Email already registered.")
			return
		}
		slog.Error("signup", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleLogin starts a session for a registered email. The password is not
// checked.
// POST /api/auth/login
// Request:  {"email":"...","password":"..."}
// Response: {"user": {...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}

	user, err := StoreFromContext(r.Context()).Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials.")
			return
		}
		slog.Error("login", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleLogout clears the session. The device cookie is kept so the
// device's registered accounts stay reachable.
// POST /api/auth/logout
// Response: 204 No Content
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := StoreFromContext(r.Context()).Logout(r.Context()); err != nil {
		slog.Error("logout", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleMe reports the session state of the requesting device.
// GET /api/auth/me
// Response: {"isAuthenticated": bool, "user": {...}|null}
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := StoreFromContext(r.Context()).Current()

	writeJSON(w, http.StatusOK, map[string]any{
		"isAuthenticated": ok,
		"user":            toUserDTO(user),
	})
}
