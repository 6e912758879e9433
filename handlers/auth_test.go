package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/j-c-fstk-dev/chatbot-platform/middleware/ratelimit"
	"github.com/j-c-fstk-dev/chatbot-platform/server"
	"github.com/j-c-fstk-dev/chatbot-platform/services/apikeys"
	"github.com/j-c-fstk-dev/chatbot-platform/services/auth"
	"github.com/j-c-fstk-dev/chatbot-platform/services/credentials"
	"github.com/j-c-fstk-dev/chatbot-platform/services/revocation"
	"github.com/j-c-fstk-dev/chatbot-platform/services/tokens"
	"github.com/j-c-fstk-dev/chatbot-platform/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const strongPassword = "Sup3r$ecret!"

type testEnv struct {
	srv  *server.Server
	db   *gorm.DB
	auth *auth.Service
}

func newTestEnv(t *testing.T, rateLimitEnabled bool) *testEnv {
	t.Helper()

	cfg := testutils.GetTestConfig()
	cfg.RateLimit.Enabled = rateLimitEnabled

	db := testutils.NewTestDB(t,
		&auth.User{}, &auth.PasswordResetToken{}, &auth.EmailVerificationToken{},
		&apikeys.APIKey{})

	credentialsService, err := credentials.NewService(cfg, nil)
	require.NoError(t, err)

	tokenService := tokens.NewService(cfg, nil)
	revocationService := revocation.NewService(revocation.NewMemoryStore(), tokenService, nil)
	authService := auth.NewService(cfg, db, credentialsService, tokenService, revocationService, nil)
	apikeyService := apikeys.NewService(db, credentialsService, nil)

	srv := server.New(cfg, nil)
	RegisterRoutes(srv, cfg, ratelimit.NewMemoryStore(),
		NewAuthHandler(authService, nil),
		NewAPIKeyHandler(apikeyService, nil),
		tokenService, revocationService, nil)

	return &testEnv{srv: srv, db: db, auth: authService}
}

func (env *testEnv) request(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.srv.Echo().ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func (env *testEnv) registerAndVerify(t *testing.T, email string) {
	t.Helper()

	rec, _ := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "name": "Test User", "password": strongPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NoError(t, env.db.Model(&auth.User{}).Where("email = ?", email).
		Update("email_verified", true).Error)
}

func (env *testEnv) login(t *testing.T, email string) (accessToken, refreshToken string) {
	t.Helper()

	rec, resp := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": strongPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	data := resp.Data.(map[string]any)
	pair := data["tokens"].(map[string]any)
	return pair["accessToken"].(string), pair["refreshToken"].(string)
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t, false)

	t.Run("creates user", func(t *testing.T) {
		rec, resp := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"email": "alice@example.com", "name": "Alice", "password": strongPassword,
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.True(t, resp.Success)
		assert.NotContains(t, rec.Body.String(), strongPassword)
		assert.NotContains(t, rec.Body.String(), "passwordHash")
	})

	t.Run("conflict on duplicate email", func(t *testing.T) {
		rec, resp := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"email": "alice@example.com", "name": "Alice", "password": strongPassword,
		})

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.False(t, resp.Success)
	})

	t.Run("itemizes weak password violations", func(t *testing.T) {
		rec, resp := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"email": "weak@example.com", "name": "Weak", "password": "abc",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Len(t, resp.Errors, 4)
	})

	t.Run("requires email and password", func(t *testing.T) {
		rec, _ := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name": "Nameless",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	env.registerAndVerify(t, "login@example.com")

	t.Run("returns token pair", func(t *testing.T) {
		access, refresh := env.login(t, "login@example.com")
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
	})

	t.Run("generic unauthorized for wrong password", func(t *testing.T) {
		rec, resp := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "login@example.com", "password": "Wr0ng$ecret!",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password", resp.Message)
	})

	t.Run("generic unauthorized for unknown email", func(t *testing.T) {
		rec, resp := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "nobody@example.com", "password": strongPassword,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password", resp.Message)
	})

	t.Run("forbidden for unverified email", func(t *testing.T) {
		rec, _ := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"email": "pending@example.com", "name": "Pending", "password": strongPassword,
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		rec, _ = env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "pending@example.com", "password": strongPassword,
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestLogoutEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	env.registerAndVerify(t, "logout@example.com")
	access, _ := env.login(t, "logout@example.com")

	t.Run("me works before logout", func(t *testing.T) {
		rec, _ := env.request(t, http.MethodGet, "/api/auth/me", access, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		rec, _ := env.request(t, http.MethodPost, "/api/auth/logout", access, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, _ = env.request(t, http.MethodGet, "/api/auth/me", access, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("requires authentication", func(t *testing.T) {
		rec, _ := env.request(t, http.MethodPost, "/api/auth/logout", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	env.registerAndVerify(t, "refresh@example.com")
	access, refresh := env.login(t, "refresh@example.com")

	t.Run("issues fresh pair", func(t *testing.T) {
		rec, resp := env.request(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
			"refreshToken": refresh,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		pair := resp.Data.(map[string]any)
		assert.NotEmpty(t, pair["accessToken"])
	})

	t.Run("rejects access token in refresh slot", func(t *testing.T) {
		rec, _ := env.request(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
			"refreshToken": access,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestPasswordResetEndpoints(t *testing.T) {
	env := newTestEnv(t, false)
	env.registerAndVerify(t, "reset@example.com")

	t.Run("same answer for known and unknown emails", func(t *testing.T) {
		rec1, resp1 := env.request(t, http.MethodPost, "/api/auth/request-password-reset", "", map[string]string{
			"email": "reset@example.com",
		})
		rec2, resp2 := env.request(t, http.MethodPost, "/api/auth/request-password-reset", "", map[string]string{
			"email": "nobody@example.com",
		})

		assert.Equal(t, http.StatusOK, rec1.Code)
		assert.Equal(t, rec1.Code, rec2.Code)
		assert.Equal(t, resp1.Message, resp2.Message)
	})

	t.Run("reset completes with stored token", func(t *testing.T) {
		var resetToken auth.PasswordResetToken
		require.NoError(t, env.db.Order("id desc").First(&resetToken).Error)

		rec, _ := env.request(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
			"token": resetToken.Token, "newPassword": "An0ther$ecret!",
		})
		assert.Equal(t, http.StatusOK, rec.Code)

		rec, _ = env.request(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
			"token": resetToken.Token, "newPassword": "Y3tAnother$ecret!",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown token rejected", func(t *testing.T) {
		rec, _ := env.request(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
			"token": "deadbeef", "newPassword": "An0ther$ecret!",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestChangePasswordEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	env.registerAndVerify(t, "change@example.com")
	access, _ := env.login(t, "change@example.com")

	t.Run("requires authentication", func(t *testing.T) {
		rec, _ := env.request(t, http.MethodPost, "/api/auth/change-password", "", map[string]string{
			"currentPassword": strongPassword, "newPassword": "An0ther$ecret!",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects wrong current password", func(t *testing.T) {
		rec, resp := env.request(t, http.MethodPost, "/api/auth/change-password", access, map[string]string{
			"currentPassword": "Wr0ng$ecret!", "newPassword": "An0ther$ecret!",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Current password is incorrect", resp.Message)
	})

	t.Run("itemizes weak replacement password", func(t *testing.T) {
		rec, resp := env.request(t, http.MethodPost, "/api/auth/change-password", access, map[string]string{
			"currentPassword": strongPassword, "newPassword": "abc",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEmpty(t, resp.Errors)
	})

	t.Run("changes password and old credential stops working", func(t *testing.T) {
		rec, _ := env.request(t, http.MethodPost, "/api/auth/change-password", access, map[string]string{
			"currentPassword": strongPassword, "newPassword": "An0ther$ecret!",
		})
		assert.Equal(t, http.StatusOK, rec.Code)

		rec, _ = env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "change@example.com", "password": strongPassword,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec, _ = env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "change@example.com", "password": "An0ther$ecret!",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestVerifyEmailEndpoint(t *testing.T) {
	env := newTestEnv(t, false)

	rec, _ := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "verify@example.com", "name": "Verify", "password": strongPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var verification auth.EmailVerificationToken
	require.NoError(t, env.db.Order("id desc").First(&verification).Error)

	rec, _ = env.request(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{
		"token": verification.Token,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "verify@example.com", "password": strongPassword,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRateLimiting(t *testing.T) {
	t.Run("failed logins exhaust the budget", func(t *testing.T) {
		env := newTestEnv(t, true)

		var lastCode int
		for i := 0; i < 6; i++ {
			rec, _ := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
				"email": fmt.Sprintf("attempt%d@example.com", i), "password": strongPassword,
			})
			lastCode = rec.Code
		}

		assert.Equal(t, http.StatusTooManyRequests, lastCode)
	})

	t.Run("successful logins do not consume the budget", func(t *testing.T) {
		env := newTestEnv(t, true)
		env.registerAndVerify(t, "regular@example.com")

		for i := 0; i < 8; i++ {
			rec, _ := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
				"email": "regular@example.com", "password": strongPassword,
			})
			require.Equal(t, http.StatusOK, rec.Code, "login %d should succeed", i+1)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, true)

	rec, resp := env.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}
