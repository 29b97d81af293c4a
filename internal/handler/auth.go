package handler

import (
	"context"
	"net/http"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

// Authenticator is the account entry behaviour the handler needs
type Authenticator interface {
	Register(ctx context.Context, req *model.RegisterRequest) error
	VerifyRegistration(ctx context.Context, req *model.VerifyRegistrationRequest) (*model.AuthResult, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResult, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	auth Authenticator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// registrationPending is returned while the emailed code awaits confirmation
type registrationPending struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.auth.Register(r.Context(), &req); err != nil {
		writeServiceError(w, r, err, "register")
		return
	}

	WriteData(w, http.StatusAccepted, registrationPending{
		Email:   req.Email,
		Message: "verification code sent",
	}, map[string]string{
		"verify": "/api/auth/register/verify",
	})
}

// VerifyRegistration handles POST /api/auth/register/verify
func (h *AuthHandler) VerifyRegistration(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyRegistrationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.auth.VerifyRegistration(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, "verify registration")
		return
	}

	WriteData(w, http.StatusCreated, result, map[string]string{
		"self": "/api/users/me",
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, "login")
		return
	}

	WriteData(w, http.StatusOK, result, map[string]string{
		"self": "/api/users/me",
	})
}
