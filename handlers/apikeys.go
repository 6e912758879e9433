package handlers

import (
	"errors"
	"net/http"

	authmw "github.com/j-c-fstk-dev/chatbot-platform/middleware/auth"
	"github.com/j-c-fstk-dev/chatbot-platform/services/apikeys"
	"github.com/j-c-fstk-dev/chatbot-platform/services/logging"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// APIKeyHandler manages provider credentials. Key material never leaves the
// server: responses carry masked previews only.
type APIKeyHandler struct {
	apikeys *apikeys.Service
	logger  *logging.Service
}

func NewAPIKeyHandler(apikeyService *apikeys.Service, logger *logging.Service) *APIKeyHandler {
	return &APIKeyHandler{
		apikeys: apikeyService,
		logger:  logger,
	}
}

type saveKeyRequest struct {
	Key string `json:"key"`
}

func (h *APIKeyHandler) Save(c echo.Context) error {
	userID := authmw.GetUserID(c)
	if userID == 0 {
		return respond(c, http.StatusUnauthorized, "Authentication required", nil)
	}

	var req saveKeyRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	err := h.apikeys.Save(c.Request().Context(), userID, c.Param("provider"), req.Key)
	if err != nil {
		switch {
		case errors.Is(err, apikeys.ErrInvalidProvider):
			return respond(c, http.StatusBadRequest, "Unsupported provider", nil)
		case errors.Is(err, apikeys.ErrEmptyKey):
			return respond(c, http.StatusBadRequest, "API key must not be empty", nil)
		default:
			if h.logger != nil {
				h.logger.Error("failed to save api key", zap.Error(err), zap.Uint("user_id", userID))
			}
			return respond(c, http.StatusInternalServerError, "Internal server error", nil)
		}
	}

	return respond(c, http.StatusOK, "API key saved", nil)
}

func (h *APIKeyHandler) List(c echo.Context) error {
	userID := authmw.GetUserID(c)
	if userID == 0 {
		return respond(c, http.StatusUnauthorized, "Authentication required", nil)
	}

	infos, err := h.apikeys.List(c.Request().Context(), userID)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to list api keys", zap.Error(err), zap.Uint("user_id", userID))
		}
		return respond(c, http.StatusInternalServerError, "Internal server error", nil)
	}

	return respond(c, http.StatusOK, "", infos)
}

func (h *APIKeyHandler) Delete(c echo.Context) error {
	userID := authmw.GetUserID(c)
	if userID == 0 {
		return respond(c, http.StatusUnauthorized, "Authentication required", nil)
	}

	err := h.apikeys.Delete(c.Request().Context(), userID, c.Param("provider"))
	if err != nil {
		if errors.Is(err, apikeys.ErrKeyNotFound) {
			return respond(c, http.StatusNotFound, "API key not found", nil)
		}
		if h.logger != nil {
			h.logger.Error("failed to delete api key", zap.Error(err), zap.Uint("user_id", userID))
		}
		return respond(c, http.StatusInternalServerError, "Internal server error", nil)
	}

	return respond(c, http.StatusOK, "API key deleted", nil)
}
