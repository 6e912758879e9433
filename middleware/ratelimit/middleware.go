package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mileusna/useragent"

	"github.com/j-c-fstk-dev/chatbot-platform/services/logging"
	"go.uber.org/zap"
)

// limitResponse is the structured 429 payload with retry guidance. Hitting a
// limit is a normal control-flow outcome, not an error.
type limitResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	RetryAfter string `json:"retryAfter"`
}

// Middleware enforces one policy over the shared counter store. Counter
// store failures degrade to fail-open with count=1: availability wins over
// strict limiting during infrastructure failure.
func Middleware(store Store, policy Policy, logger *logging.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if policy.Skip != nil && policy.Skip(c) {
				return next(c)
			}

			key := policy.KeyFor(c)

			result, err := store.Increment(c.Request().Context(), key, policy.Window)
			if err != nil {
				if logger != nil {
					logger.Error("rate limit store failure, failing open",
						zap.String("policy", policy.Name),
						zap.Error(err))
				}
				result = Result{TotalHits: 1, Remaining: policy.Window}
			}

			resetTime := time.Now().Add(result.Remaining)
			remaining := max(policy.Max-result.TotalHits, 0)

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(policy.Max))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			c.Response().Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if result.TotalHits > policy.Max {
				if logger != nil {
					ua := useragent.Parse(c.Request().UserAgent())
					logger.Warn("rate limit exceeded",
						zap.String("policy", policy.Name),
						zap.String("ip", c.RealIP()),
						zap.String("path", c.Path()),
						zap.String("browser", ua.Name),
						zap.String("os", ua.OS))
				}

				return c.JSON(http.StatusTooManyRequests, limitResponse{
					Success:    false,
					Message:    policy.Message,
					RetryAfter: policy.RetryHint,
				})
			}

			err = next(c)

			// Policies counting only failures refund the hit once the
			// handler reports success.
			if policy.SkipSuccessful && err == nil && c.Response().Status < http.StatusBadRequest {
				if derr := store.Decrement(c.Request().Context(), key); derr != nil && logger != nil {
					logger.Error("rate limit refund failed",
						zap.String("policy", policy.Name),
						zap.Error(derr))
				}
			}

			return err
		}
	}
}
