package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mathtutor/apiserver/internal/services"
)

// AuthHandler provides the signup and login endpoints.
type AuthHandler struct {
	userService *services.UserService
}

func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService) {
	handler := NewAuthHandler(userService)

	r.Post("/signup", handler.Signup)
	r.Post("/login", handler.Login)
}

// SignupResponse returns the new account's uid and nothing else.
type SignupResponse struct {
	UID string `json:"uid"`
}

// Signup creates a new user account.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req services.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result, err := h.userService.Signup(r.Context(), req)
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			writeError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	writeJSON(w, http.StatusOK, SignupResponse{UID: result.UID})
}

// LoginResponse is the stateless identity payload for a successful login.
type LoginResponse struct {
	UID     string `json:"uid"`
	Name    string `json:"user_name"`
	Message string `json:"message"`
}

// Login verifies credentials and stamps the last login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result, err := h.userService.Login(r.Context(), req)
	if err != nil {
		var validationErr *services.ValidationError
		switch {
		case errors.As(err, &validationErr):
			writeError(w, http.StatusBadRequest, validationErr.Error())
		case errors.Is(err, services.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		default:
			writeError(w, http.StatusInternalServerError, "failed to authenticate")
		}
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		UID:     result.UID,
		Name:    result.Name,
		Message: "logged-in",
	})
}
