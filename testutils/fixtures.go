package testutils

import (
	"testing"
	"time"

	"github.com/j-c-fstk-dev/chatbot-platform/config"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GetTestConfig returns a fully populated config with fast bcrypt cost and
// fixed secrets so tests are deterministic and quick.
func GetTestConfig() *config.Config {
	cfg := &config.Config{}

	cfg.App.Name = "Chatbot Platform Test"
	cfg.App.URL = "http://localhost:8080"
	cfg.App.Env = "test"

	cfg.JWT.AccessSecret = "test-access-secret"
	cfg.JWT.RefreshSecret = "test-refresh-secret"
	cfg.JWT.AccessExpiry = 15 * time.Minute
	cfg.JWT.RefreshExpiry = 168 * time.Hour
	cfg.JWT.Issuer = "chatbot-platform"
	cfg.JWT.Audience = "chatbot-platform-users"

	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.Auth.MinPasswordLength = 8
	cfg.Auth.PasswordResetTokenLength = 32
	cfg.Auth.PasswordResetExpiry = time.Hour
	cfg.Auth.EmailVerificationTokenLength = 32
	cfg.Auth.EmailVerificationExpiry = 24 * time.Hour

	cfg.Encryption.Key = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Store = "memory"

	return cfg
}

// NewTestDB opens an in-memory sqlite database and migrates the given models.
func NewTestDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("failed to migrate test models: %v", err)
		}
	}

	return db
}
