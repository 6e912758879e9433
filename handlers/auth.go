package handlers

import (
	"errors"
	"net/http"
	"strings"

	authmw "github.com/j-c-fstk-dev/chatbot-platform/middleware/auth"
	"github.com/j-c-fstk-dev/chatbot-platform/services/auth"
	"github.com/j-c-fstk-dev/chatbot-platform/services/logging"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth   *auth.Service
	logger *logging.Service
}

func NewAuthHandler(authService *auth.Service, logger *logging.Service) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		logger: logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return respond(c, http.StatusBadRequest, "Email and password are required", nil)
	}

	user, err := h.auth.Register(c.Request().Context(), req.Email, req.Name, req.Password)
	if err != nil {
		var weak *auth.WeakPasswordError
		switch {
		case errors.As(err, &weak):
			return respondErrors(c, http.StatusBadRequest, "Password does not meet requirements", weak.Violations)
		case errors.Is(err, auth.ErrEmailAlreadyRegistered):
			return respond(c, http.StatusConflict, "Email already registered", nil)
		default:
			return h.internalError(c, "registration failed", err)
		}
	}

	return respond(c, http.StatusCreated, "Registration successful, please verify your email", user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	pair, user, err := h.auth.Login(c.Request().Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return respond(c, http.StatusUnauthorized, "Invalid email or password", nil)
		case errors.Is(err, auth.ErrEmailNotVerified):
			return respond(c, http.StatusForbidden, "Please verify your email before logging in", nil)
		default:
			return h.internalError(c, "login failed", err)
		}
	}

	return respond(c, http.StatusOK, "Login successful", map[string]any{
		"tokens": pair,
		"user":   user,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	token := bearerToken(c)
	if token == "" {
		return respond(c, http.StatusBadRequest, "Access token required", nil)
	}

	if err := h.auth.Logout(c.Request().Context(), token); err != nil {
		return h.internalError(c, "logout failed", err)
	}

	return respond(c, http.StatusOK, "Logged out", nil)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	pair, err := h.auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefreshToken) {
			return respond(c, http.StatusUnauthorized, "Invalid or expired refresh token", nil)
		}
		return h.internalError(c, "token refresh failed", err)
	}

	return respond(c, http.StatusOK, "Token refreshed", pair)
}

// RequestPasswordReset answers identically for known and unknown emails.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	if err := h.auth.RequestPasswordReset(c.Request().Context(), strings.ToLower(strings.TrimSpace(req.Email))); err != nil {
		return h.internalError(c, "password reset request failed", err)
	}

	return respond(c, http.StatusOK, "If that email is registered, a reset link has been sent", nil)
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	err := h.auth.ResetPassword(c.Request().Context(), req.Token, req.NewPassword)
	if err != nil {
		var weak *auth.WeakPasswordError
		switch {
		case errors.As(err, &weak):
			return respondErrors(c, http.StatusBadRequest, "Password does not meet requirements", weak.Violations)
		case errors.Is(err, auth.ErrTokenInvalid):
			return respond(c, http.StatusBadRequest, "Invalid or expired reset token", nil)
		default:
			return h.internalError(c, "password reset failed", err)
		}
	}

	return respond(c, http.StatusOK, "Password has been reset", nil)
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body", nil)
	}
	if req.Token == "" {
		req.Token = c.QueryParam("token")
	}

	if err := h.auth.VerifyEmail(c.Request().Context(), req.Token); err != nil {
		if errors.Is(err, auth.ErrTokenInvalid) {
			return respond(c, http.StatusBadRequest, "Invalid or expired verification token", nil)
		}
		return h.internalError(c, "email verification failed", err)
	}

	return respond(c, http.StatusOK, "Email verified", nil)
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	userID := authmw.GetUserID(c)
	if userID == 0 {
		return respond(c, http.StatusUnauthorized, "Authentication required", nil)
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body", nil)
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return respond(c, http.StatusBadRequest, "Current and new password are required", nil)
	}

	err := h.auth.ChangePassword(c.Request().Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		var weak *auth.WeakPasswordError
		switch {
		case errors.As(err, &weak):
			return respondErrors(c, http.StatusBadRequest, "Password does not meet requirements", weak.Violations)
		case errors.Is(err, auth.ErrInvalidCredentials):
			return respond(c, http.StatusUnauthorized, "Current password is incorrect", nil)
		case errors.Is(err, auth.ErrUserNotFound):
			return respond(c, http.StatusUnauthorized, "Authentication required", nil)
		default:
			return h.internalError(c, "password change failed", err)
		}
	}

	return respond(c, http.StatusOK, "Password has been changed", nil)
}

func (h *AuthHandler) Me(c echo.Context) error {
	userID := authmw.GetUserID(c)
	if userID == 0 {
		return respond(c, http.StatusUnauthorized, "Authentication required", nil)
	}

	user, err := h.auth.GetUser(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return respond(c, http.StatusUnauthorized, "Authentication required", nil)
		}
		return h.internalError(c, "user lookup failed", err)
	}

	return respond(c, http.StatusOK, "", user)
}

// internalError logs the cause and returns an opaque 500.
func (h *AuthHandler) internalError(c echo.Context, msg string, err error) error {
	if h.logger != nil {
		h.logger.Error(msg, zap.Error(err), zap.String("path", c.Path()))
	}
	return respond(c, http.StatusInternalServerError, "Internal server error", nil)
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
