package ratelimit

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	authmw "github.com/j-c-fstk-dev/chatbot-platform/middleware/auth"
)

// Policy describes one window-counter class. Policies sharing a store stay
// isolated through their key prefixes.
type Policy struct {
	Name      string
	Prefix    string
	Window    time.Duration
	Max       int
	Message   string
	RetryHint string
	// PerUser keys the counter by authenticated user ID when one is
	// available, falling back to the network address.
	PerUser bool
	// SkipSuccessful refunds the hit when the request completes with a
	// non-error status, so only failed attempts consume the budget.
	SkipSuccessful bool
	// Skip exempts a request from the policy entirely.
	Skip func(c echo.Context) bool
}

var (
	General = Policy{
		Name:      "general",
		Prefix:    "general:",
		Window:    15 * time.Minute,
		Max:       100,
		Message:   "Too many requests from this IP, please try again later.",
		RetryHint: "15 minutes",
		PerUser:   true,
	}

	AuthAttempts = Policy{
		Name:           "auth",
		Prefix:         "auth:",
		Window:         15 * time.Minute,
		Max:            5,
		Message:        "Too many authentication attempts, please try again later.",
		RetryHint:      "15 minutes",
		SkipSuccessful: true,
	}

	API = Policy{
		Name:      "api",
		Prefix:    "api:",
		Window:    time.Minute,
		Max:       20,
		Message:   "Too many API requests, please slow down.",
		RetryHint: "1 minute",
		PerUser:   true,
		Skip: func(c echo.Context) bool {
			return strings.Contains(c.Path(), "/health")
		},
	}

	Uploads = Policy{
		Name:      "upload",
		Prefix:    "upload:",
		Window:    time.Hour,
		Max:       10,
		Message:   "Too many file uploads, please try again later.",
		RetryHint: "1 hour",
		PerUser:   true,
	}

	PasswordReset = Policy{
		Name:      "password-reset",
		Prefix:    "password-reset:",
		Window:    time.Hour,
		Max:       3,
		Message:   "Too many password reset attempts, please try again later.",
		RetryHint: "1 hour",
	}
)

// KeyFor resolves the counter key for a request under this policy.
func (p Policy) KeyFor(c echo.Context) string {
	if p.PerUser {
		if userID := authmw.GetUserID(c); userID != 0 {
			return p.Prefix + strconv.FormatUint(uint64(userID), 10)
		}
	}

	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}

	return p.Prefix + ip
}
