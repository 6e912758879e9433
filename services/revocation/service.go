package revocation

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/j-c-fstk-dev/chatbot-platform/services/logging"
	"github.com/j-c-fstk-dev/chatbot-platform/services/tokens"
	"go.uber.org/zap"
)

var ErrStoreNotConfigured = errors.New("revocation store not configured")

// hashToken gives a loggable handle on a token without exposing it.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", hash[:8])
}

type Service struct {
	store  Store
	tokens *tokens.Service
	logger *logging.Service
}

func NewService(store Store, tokenService *tokens.Service, logger *logging.Service) *Service {
	return &Service{
		store:  store,
		tokens: tokenService,
		logger: logger,
	}
}

// RevokeAccessToken blacklists a verified access token for exactly its
// remaining validity. Revoking an already expired token is a no-op; revoking
// an already revoked one succeeds idempotently.
func (s *Service) RevokeAccessToken(ctx context.Context, tokenString string) error {
	if s.store == nil {
		return ErrStoreNotConfigured
	}

	claims, err := s.tokens.VerifyAccessToken(tokenString)
	if err != nil {
		// An unverifiable token needs no blacklist entry, it is already
		// rejected everywhere.
		if s.logger != nil {
			s.logger.Warn("revocation requested for unverifiable token",
				zap.String("token_hash", hashToken(tokenString)))
		}
		return nil
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil
	}

	return s.Revoke(ctx, tokenString, remaining)
}

// Revoke inserts a blacklist entry with the given TTL. The TTL must not
// exceed the token's remaining lifetime; RevokeAccessToken computes it from
// the verified expiry claim.
func (s *Service) Revoke(ctx context.Context, tokenString string, ttl time.Duration) error {
	if s.store == nil {
		return ErrStoreNotConfigured
	}
	if ttl <= 0 {
		return nil
	}

	if err := s.store.Revoke(ctx, tokenString, ttl); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to revoke token",
				zap.String("token_hash", hashToken(tokenString)),
				zap.Error(err))
		}
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("token revoked",
			zap.String("token_hash", hashToken(tokenString)),
			zap.Duration("ttl", ttl))
	}

	return nil
}

func (s *Service) IsRevoked(ctx context.Context, tokenString string) (bool, error) {
	if s.store == nil {
		return false, ErrStoreNotConfigured
	}

	revoked, err := s.store.IsRevoked(ctx, tokenString)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to check token revocation status",
				zap.String("token_hash", hashToken(tokenString)),
				zap.Error(err))
		}
		return false, fmt.Errorf("failed to check token revocation status: %w", err)
	}

	return revoked, nil
}
