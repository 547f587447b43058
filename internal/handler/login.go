package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/security/middleware"
	"github.com/aryan0dhankhar/pgledger/internal/service"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordRequest is the body of POST /api/auth/password
type PasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// LoginHandler handles operator authentication
type LoginHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewLoginHandler creates a new login handler
func NewLoginHandler(authService *service.AuthService, logger *slog.Logger) *LoginHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginHandler{auth: authService, logger: logger}
}

// ServeHTTP handles POST /api/auth/login
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("authentication failed", slog.String("error", err.Error()))
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ChangePassword handles POST /api/auth/password for the calling operator
func (h *LoginHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	operator := middleware.OperatorID(r.Context())
	if operator == "" {
		writeError(w, h.logger, domain.Validationf("no operator in request"))
		return
	}
	var req PasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.auth.ChangePassword(r.Context(), operator, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
