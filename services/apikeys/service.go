package apikeys

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/j-c-fstk-dev/chatbot-platform/services/credentials"
	"github.com/j-c-fstk-dev/chatbot-platform/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrKeyNotFound     = errors.New("api key not found")
	ErrEmptyKey        = errors.New("api key must not be empty")
	ErrInvalidProvider = errors.New("unsupported provider")
)

// SupportedProviders lists the upstream services a key can be stored for.
var SupportedProviders = []string{"openai", "anthropic", "google", "mistral"}

type Service struct {
	db          *gorm.DB
	credentials *credentials.Service
	logger      *logging.Service
}

func NewService(db *gorm.DB, credentialsService *credentials.Service, logger *logging.Service) *Service {
	return &Service{
		db:          db,
		credentials: credentialsService,
		logger:      logger,
	}
}

func validProvider(provider string) bool {
	for _, p := range SupportedProviders {
		if p == provider {
			return true
		}
	}
	return false
}

// Save encrypts and upserts the key for (user, provider). Saving again for
// the same provider replaces the previous key.
func (s *Service) Save(ctx context.Context, userID uint, provider, key string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !validProvider(provider) {
		return ErrInvalidProvider
	}
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}

	encrypted, err := s.credentials.EncryptSecret(key)
	if err != nil {
		return err
	}

	apiKey := &APIKey{
		UserID:       userID,
		Provider:     provider,
		EncryptedKey: encrypted,
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"encrypted_key", "updated_at"}),
	}).Create(apiKey).Error
	if err != nil {
		return fmt.Errorf("failed to save api key: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("api key saved", zap.Uint("user_id", userID), zap.String("provider", provider))
	}

	return nil
}

// Get returns the decrypted key for (user, provider).
func (s *Service) Get(ctx context.Context, userID uint, provider string) (string, error) {
	var apiKey APIKey
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&apiKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("failed to look up api key: %w", err)
	}

	return s.credentials.DecryptSecret(apiKey.EncryptedKey)
}

// List returns the user's stored keys with masked previews, never the key
// material itself.
func (s *Service) List(ctx context.Context, userID uint) ([]APIKeyInfo, error) {
	var keys []APIKey
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("provider").
		Find(&keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}

	infos := make([]APIKeyInfo, 0, len(keys))
	for _, k := range keys {
		plain, err := s.credentials.DecryptSecret(k.EncryptedKey)
		if err != nil {
			return nil, err
		}
		infos = append(infos, APIKeyInfo{
			ID:        k.ID,
			Provider:  k.Provider,
			MaskedKey: MaskKey(plain),
		})
	}

	return infos, nil
}

func (s *Service) Delete(ctx context.Context, userID uint, provider string) error {
	// Hard delete: a soft-deleted row would still occupy the unique
	// (user_id, provider) index and shadow later saves.
	result := s.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND provider = ?", userID, provider).
		Delete(&APIKey{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete api key: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrKeyNotFound
	}

	if s.logger != nil {
		s.logger.Info("api key deleted", zap.Uint("user_id", userID), zap.String("provider", provider))
	}

	return nil
}

// MaskKey keeps the first and last four characters of a key visible. Short
// keys are fully masked.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
