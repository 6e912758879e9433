package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/j-c-fstk-dev/chatbot-platform/services/logging"
	"github.com/j-c-fstk-dev/chatbot-platform/services/revocation"
	"github.com/j-c-fstk-dev/chatbot-platform/services/tokens"
	"go.uber.org/zap"
)

const (
	UserIDKey = "_auth_user_id"
	ClaimsKey = "_auth_claims"
)

func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}

// RequireAuth verifies the bearer access token and consults the revocation
// store before trusting any claim. Every failure mode answers with the same
// generic 401 so callers cannot probe which check rejected them.
func RequireAuth(tokenService *tokens.Service, revocationService *revocation.Service, logger *logging.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := bearerToken(c)
			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
			}

			claims, err := tokenService.VerifyAccessToken(tokenString)
			if err != nil {
				if logger != nil {
					logger.Warn("authentication failed",
						zap.Error(err),
						zap.String("ip", c.RealIP()))
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			// Relational and blacklist checks fail closed: a store error
			// rejects the request rather than honoring a possibly revoked
			// token.
			revoked, err := revocationService.IsRevoked(c.Request().Context(), tokenString)
			if err != nil {
				if logger != nil {
					logger.Error("revocation check failed", zap.Error(err))
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
			}
			if revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token has been revoked")
			}

			c.Set(UserIDKey, claims.UserID)
			c.Set(ClaimsKey, claims)

			return next(c)
		}
	}
}

// OptionalAuth decodes a bearer token when present but never rejects.
func OptionalAuth(tokenService *tokens.Service, logger *logging.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := bearerToken(c)
			if tokenString == "" {
				return next(c)
			}

			claims, err := tokenService.VerifyAccessToken(tokenString)
			if err != nil {
				if logger != nil {
					logger.Warn("optional auth failed",
						zap.Error(err),
						zap.String("ip", c.RealIP()))
				}
				return next(c)
			}

			c.Set(UserIDKey, claims.UserID)
			c.Set(ClaimsKey, claims)

			return next(c)
		}
	}
}

// RequireRole gates a route on the role claim. Requests without claims get
// 401, authenticated requests with the wrong role get 403.
func RequireRole(logger *logging.Service, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := GetClaims(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}

			role := claims.Role
			if role == "" {
				role = "user"
			}

			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}

			if logger != nil {
				logger.Warn("insufficient permissions",
					zap.Uint("user_id", claims.UserID),
					zap.String("role", role),
					zap.Strings("required_roles", roles))
			}

			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
	}
}

func GetUserID(c echo.Context) uint {
	if userID, ok := c.Get(UserIDKey).(uint); ok {
		return userID
	}
	return 0
}

func GetClaims(c echo.Context) *tokens.AccessClaims {
	if claims, ok := c.Get(ClaimsKey).(*tokens.AccessClaims); ok {
		return claims
	}
	return nil
}
