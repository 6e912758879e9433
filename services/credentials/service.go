package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/j-c-fstk-dev/chatbot-platform/config"
	"github.com/j-c-fstk-dev/chatbot-platform/services/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordHashingFailed = errors.New("failed to hash password")
	ErrMalformedHash         = errors.New("stored password hash is malformed")
	ErrEncryptionFailed      = errors.New("failed to encrypt secret")
	ErrDecryptionFailed      = errors.New("failed to decrypt secret")
	ErrMalformedSecret       = errors.New("encrypted secret blob is malformed")
)

const passwordSpecialChars = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

// StrengthResult collects every violated password rule; rules are evaluated
// independently so Errors is deterministic for a given input.
type StrengthResult struct {
	IsValid bool
	Errors  []string
}

type Service struct {
	config *config.Config
	key    []byte
	logger *logging.Service
}

func NewService(cfg *config.Config, logger *logging.Service) (*Service, error) {
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}

	key, err := loadEncryptionKey(cfg.Encryption.Key, logger)
	if err != nil {
		return nil, err
	}

	return &Service{
		config: cfg,
		key:    key,
		logger: logger,
	}, nil
}

func loadEncryptionKey(hexKey string, logger *logging.Service) ([]byte, error) {
	if hexKey == "" {
		// Secrets encrypted under a generated key are lost on restart.
		if logger != nil {
			logger.Warn("no encryption key configured, generating ephemeral key")
		}
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate encryption key: %w", err)
		}
		return key, nil
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}

	return key, nil
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.Auth.BcryptCost)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("password hashing failed", zap.Error(err))
		}
		return "", ErrPasswordHashingFailed
	}

	return string(hash), nil
}

// ComparePassword reports whether password matches the stored hash. A
// mismatch is a normal false result; an error means the stored hash itself
// could not be parsed.
func (s *Service) ComparePassword(password, hashedPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	if s.logger != nil {
		s.logger.Error("password comparison failed on malformed hash", zap.Error(err))
	}
	return false, fmt.Errorf("%w: %w", ErrMalformedHash, err)
}

func (s *Service) ValidatePasswordStrength(password string) StrengthResult {
	var violations []string

	minLength := s.config.Auth.MinPasswordLength
	if minLength <= 0 {
		minLength = 8
	}

	if len(password) < minLength {
		violations = append(violations, fmt.Sprintf("Password must be at least %d characters long", minLength))
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case strings.ContainsRune(passwordSpecialChars, char):
			hasSpecial = true
		}
	}

	if !hasUpper {
		violations = append(violations, "Password must contain at least one uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "Password must contain at least one lowercase letter")
	}
	if !hasNumber {
		violations = append(violations, "Password must contain at least one number")
	}
	if !hasSpecial {
		violations = append(violations, "Password must contain at least one special character")
	}

	return StrengthResult{
		IsValid: len(violations) == 0,
		Errors:  violations,
	}
}

// GenerateSecureToken returns lengthBytes of cryptographically secure random
// data, hex-encoded. Used for password reset and email verification tokens.
func (s *Service) GenerateSecureToken(lengthBytes int) (string, error) {
	if lengthBytes <= 0 {
		lengthBytes = 32
	}

	bytes := make([]byte, lengthBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure token: %w", err)
	}

	return hex.EncodeToString(bytes), nil
}
