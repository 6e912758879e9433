package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/j-c-fstk-dev/chatbot-platform/config"
	"github.com/j-c-fstk-dev/chatbot-platform/services/logging"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenGeneration  = errors.New("failed to generate token")
)

// AccessClaims asserts a user's identity for a single short session window.
type AccessClaims struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims is exchanged for a new access/refresh pair. It is signed with
// a secret distinct from the access secret so neither class of token ever
// verifies against the other's key.
type RefreshClaims struct {
	UserID  uint   `json:"userId"`
	TokenID string `json:"tokenId"`
	jwt.RegisteredClaims
}

type Service struct {
	config *config.Config
	logger *logging.Service
}

func NewService(cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		logger: logger,
	}
}

func (s *Service) AccessExpiry() time.Duration {
	return s.config.JWT.AccessExpiry
}

func (s *Service) RefreshExpiry() time.Duration {
	return s.config.JWT.RefreshExpiry
}

func (s *Service) registeredClaims(userID uint, now time.Time, expiry time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    s.config.JWT.Issuer,
		Subject:   fmt.Sprintf("%d", userID),
		Audience:  []string{s.config.JWT.Audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
}

func (s *Service) GenerateAccessToken(userID uint, email, role string) (string, error) {
	claims := AccessClaims{
		UserID:           userID,
		Email:            email,
		Role:             role,
		RegisteredClaims: s.registeredClaims(userID, time.Now(), s.config.JWT.AccessExpiry),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.JWT.AccessSecret))
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to sign access token", zap.Error(err))
		}
		return "", fmt.Errorf("%w: %w", ErrTokenGeneration, err)
	}

	return tokenString, nil
}

func (s *Service) GenerateRefreshToken(userID uint) (string, error) {
	claims := RefreshClaims{
		UserID:           userID,
		TokenID:          uuid.New().String(),
		RegisteredClaims: s.registeredClaims(userID, time.Now(), s.config.JWT.RefreshExpiry),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.JWT.RefreshSecret))
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to sign refresh token", zap.Error(err))
		}
		return "", fmt.Errorf("%w: %w", ErrTokenGeneration, err)
	}

	return tokenString, nil
}

func (s *Service) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.verify(tokenString, claims, s.config.JWT.AccessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Service) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.verify(tokenString, claims, s.config.JWT.RefreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Service) verify(tokenString string, claims jwt.Claims, secret string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.config.JWT.Issuer),
		jwt.WithAudience(s.config.JWT.Audience),
	)

	if err != nil {
		if s.logger != nil {
			s.logger.Warn("token verification failed", zap.Error(err))
		}

		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return ErrMalformedToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return ErrInvalidSignature
		default:
			return ErrInvalidToken
		}
	}

	if !token.Valid {
		return ErrInvalidToken
	}

	return nil
}
