package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/loomline/backoffice/internal/auth"
	"github.com/loomline/backoffice/internal/middleware"
	"github.com/loomline/backoffice/internal/sanitize"
	"github.com/loomline/backoffice/internal/service"
	"go.uber.org/zap"
)

// OTPService is the login flow used by AuthHandler.
// Satisfied by *service.OTPService.
type OTPService interface {
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (*service.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	svc          OTPService
	secureCookie bool
	logger       *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc OTPService, secureCookie bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, secureCookie: secureCookie, logger: logger}
}

// RegisterRoutes registers auth endpoints on the given Chi router.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/otp/request", h.RequestCode)
	r.Post("/auth/otp/verify", h.VerifyCode)
	r.Post("/auth/refresh", h.Refresh)
}

// --- Request / Response types ---

type otpRequest struct {
	Email string `json:"email"`
}

type otpVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
}

// --- Handlers ---

// RequestCode issues a one-time login code. The response is the same whether
// or not the address belongs to an employee.
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.svc.RequestCode(r.Context(), req.Email); err != nil {
		if errors.Is(err, sanitize.ErrInvalidEmail) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		h.logger.Error("request otp", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "if the address is registered, a code has been sent"})
}

// VerifyCode exchanges email + code for a token pair.
func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Email == "" || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and code are required"})
		return
	}

	pair, err := h.svc.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCode), errors.Is(err, service.ErrCodeExpired):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrTooManyAttempts):
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": err.Error()})
		default:
			h.logger.Error("verify otp", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.respondWithTokens(w, pair)
}

// Refresh exchanges a valid refresh token for a new access + refresh token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "refresh_token is required"})
		return
	}

	pair, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
		case errors.Is(err, service.ErrUserInactive):
			writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
		default:
			h.logger.Error("refresh token", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.respondWithTokens(w, pair)
}

// --- Helpers ---

func (h *AuthHandler) respondWithTokens(w http.ResponseWriter, pair *service.TokenPair) {
	// The page load cannot send an Authorization header; the cookie covers it.
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(auth.AccessTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User: userResponse{
			ID:       pair.User.ID,
			FullName: pair.User.FullName,
			Email:    pair.User.Email,
			Role:     pair.User.Role,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode JSON response", zap.Error(err))
	}
}
