package handlers

import (
	"github.com/j-c-fstk-dev/chatbot-platform/config"
	authmw "github.com/j-c-fstk-dev/chatbot-platform/middleware/auth"
	"github.com/j-c-fstk-dev/chatbot-platform/middleware/ratelimit"
	"github.com/j-c-fstk-dev/chatbot-platform/server"
	"github.com/j-c-fstk-dev/chatbot-platform/services/logging"
	"github.com/j-c-fstk-dev/chatbot-platform/services/revocation"
	"github.com/j-c-fstk-dev/chatbot-platform/services/tokens"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts every endpoint with its rate-limit class and auth
// requirements.
func RegisterRoutes(
	srv *server.Server,
	cfg *config.Config,
	store ratelimit.Store,
	authHandler *AuthHandler,
	apiKeyHandler *APIKeyHandler,
	tokenService *tokens.Service,
	revocationService *revocation.Service,
	logger *logging.Service,
) {
	limit := func(policy ratelimit.Policy) echo.MiddlewareFunc {
		if !cfg.RateLimit.Enabled {
			return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
		}
		return ratelimit.Middleware(store, policy, logger)
	}

	requireAuth := authmw.RequireAuth(tokenService, revocationService, logger)

	srv.Get("/health", Health)

	api := srv.Group("/api", limit(ratelimit.General))

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register, limit(ratelimit.AuthAttempts))
	authGroup.POST("/login", authHandler.Login, limit(ratelimit.AuthAttempts))
	authGroup.POST("/refresh", authHandler.Refresh, limit(ratelimit.AuthAttempts))
	authGroup.POST("/logout", authHandler.Logout, requireAuth)
	authGroup.POST("/request-password-reset", authHandler.RequestPasswordReset, limit(ratelimit.PasswordReset))
	authGroup.POST("/reset-password", authHandler.ResetPassword, limit(ratelimit.PasswordReset))
	authGroup.POST("/verify-email", authHandler.VerifyEmail)
	authGroup.POST("/change-password", authHandler.ChangePassword, requireAuth)
	authGroup.GET("/me", authHandler.Me, requireAuth)

	keysGroup := api.Group("/apikeys", requireAuth, limit(ratelimit.API))
	keysGroup.GET("", apiKeyHandler.List)
	keysGroup.PUT("/:provider", apiKeyHandler.Save)
	keysGroup.DELETE("/:provider", apiKeyHandler.Delete)
}
