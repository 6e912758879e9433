package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/j-c-fstk-dev/chatbot-platform/config"
	"github.com/j-c-fstk-dev/chatbot-platform/services/credentials"
	"github.com/j-c-fstk-dev/chatbot-platform/services/logging"
	"github.com/j-c-fstk-dev/chatbot-platform/services/revocation"
	"github.com/j-c-fstk-dev/chatbot-platform/services/tokens"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike so
	// responses never reveal which one failed.
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailNotVerified       = errors.New("email not verified")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidRefreshToken    = errors.New("invalid refresh token")
	ErrUserNotFound           = errors.New("user not found")
	// ErrTokenInvalid is shared by used, expired, and unknown single-use
	// tokens: reuse must be indistinguishable from expiry.
	ErrTokenInvalid = errors.New("invalid or expired token")
)

// WeakPasswordError carries every violated strength rule for itemized 400s.
type WeakPasswordError struct {
	Violations []string
}

func (e *WeakPasswordError) Error() string {
	return "password is too weak"
}

type MailService interface {
	SendPasswordReset(to, resetURL string, expiry time.Duration) error
	SendEmailVerification(to, verifyURL string, expiry time.Duration) error
}

type Service struct {
	config      *config.Config
	db          *gorm.DB
	credentials *credentials.Service
	tokens      *tokens.Service
	revocation  *revocation.Service
	mailService MailService
	logger      *logging.Service
}

func NewService(cfg *config.Config, db *gorm.DB, credentialsService *credentials.Service, tokenService *tokens.Service, revocationService *revocation.Service, logger *logging.Service) *Service {
	return &Service{
		config:      cfg,
		db:          db,
		credentials: credentialsService,
		tokens:      tokenService,
		revocation:  revocationService,
		logger:      logger,
	}
}

// SetMailService wires mail delivery in after construction; the flows work
// without it, matching deployments that have no SMTP configured.
func (s *Service) SetMailService(mailService MailService) {
	s.mailService = mailService
}

func (s *Service) Register(ctx context.Context, email, name, password string) (*User, error) {
	if result := s.credentials.ValidatePasswordStrength(password); !result.IsValid {
		return nil, &WeakPasswordError{Violations: result.Errors}
	}

	hash, err := s.credentials.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:         email,
		Name:          name,
		PasswordHash:  hash,
		Role:          "user",
		EmailVerified: false,
	}

	// The unique index on email is the authority here; concurrent
	// registrations for the same address race past any pre-check.
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	verification, err := s.createEmailVerificationToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if s.mailService != nil {
		verifyURL := fmt.Sprintf("%s/auth/verify-email?token=%s", s.config.App.URL, verification.Token)
		if err := s.mailService.SendEmailVerification(user.Email, verifyURL, s.config.Auth.EmailVerificationExpiry); err != nil {
			// Registration already succeeded; the token can be re-sent.
			if s.logger != nil {
				s.logger.Error("failed to send verification email", zap.Error(err), zap.Uint("user_id", user.ID))
			}
		}
	}

	if s.logger != nil {
		s.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("email", user.Email))
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, *User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}

	match, err := s.credentials.ComparePassword(password, user.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		if s.logger != nil {
			s.logger.Warn("login failed", zap.String("email", email))
		}
		return nil, nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, nil, ErrEmailNotVerified
	}

	pair, err := s.issueTokenPair(&user)
	if err != nil {
		return nil, nil, err
	}

	if s.logger != nil {
		s.logger.Info("user login", zap.Uint("user_id", user.ID), zap.String("email", user.Email))
	}

	return pair, &user, nil
}

// Logout blacklists the access token for its remaining validity window.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	return s.revocation.RevokeAccessToken(ctx, accessToken)
}

// Refresh exchanges a refresh token for a new access/refresh pair. The
// refresh token's signature is fully verified before any claim is trusted.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	var user User
	if err := s.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return s.issueTokenPair(&user)
}

func (s *Service) issueTokenPair(user *User) (*TokenPair, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.tokens.AccessExpiry().Seconds()),
	}, nil
}

// ChangePassword overwrites the user's credential after verifying the
// current one. The new password passes the same strength policy as
// registration.
func (s *Service) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	var user User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	match, err := s.credentials.ComparePassword(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return ErrInvalidCredentials
	}

	if result := s.credentials.ValidatePasswordStrength(newPassword); !result.IsValid {
		return &WeakPasswordError{Violations: result.Errors}
	}

	hash, err := s.credentials.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).
		Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("password changed", zap.Uint("user_id", userID))
	}

	return nil
}

// GetUser loads a user by ID.
func (s *Service) GetUser(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &user, nil
}

// RequestPasswordReset creates a reset token when the email exists. The
// caller gets the same nil outcome either way, so responses cannot be used
// to enumerate accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	var user User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := s.credentials.GenerateSecureToken(s.config.Auth.PasswordResetTokenLength)
	if err != nil {
		return err
	}

	resetToken := &PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.config.Auth.PasswordResetExpiry),
	}

	if err := s.db.WithContext(ctx).Create(resetToken).Error; err != nil {
		return fmt.Errorf("failed to create password reset token: %w", err)
	}

	if s.mailService != nil {
		resetURL := fmt.Sprintf("%s/auth/reset-password?token=%s", s.config.App.URL, token)
		if err := s.mailService.SendPasswordReset(user.Email, resetURL, s.config.Auth.PasswordResetExpiry); err != nil {
			if s.logger != nil {
				s.logger.Error("failed to send password reset email", zap.Error(err), zap.Uint("user_id", user.ID))
			}
		}
	}

	if s.logger != nil {
		s.logger.Info("password reset requested", zap.Uint("user_id", user.ID))
	}

	return nil
}

// ResetPassword consumes a reset token and overwrites the user's credential.
// The token is marked used with a conditional update inside the transaction,
// so concurrent presentations of the same token succeed at most once.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if result := s.credentials.ValidatePasswordStrength(newPassword); !result.IsValid {
		return &WeakPasswordError{Violations: result.Errors}
	}

	hash, err := s.credentials.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		result := tx.Model(&PasswordResetToken{}).
			Where("token = ? AND used = ? AND expires_at > ?", token, false, now).
			Updates(map[string]any{"used": true, "used_at": now})
		if result.Error != nil {
			return fmt.Errorf("failed to consume password reset token: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTokenInvalid
		}

		var resetToken PasswordResetToken
		if err := tx.Where("token = ?", token).First(&resetToken).Error; err != nil {
			return fmt.Errorf("failed to load password reset token: %w", err)
		}

		if err := tx.Model(&User{}).Where("id = ?", resetToken.UserID).
			Update("password_hash", hash).Error; err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		if s.logger != nil {
			s.logger.Info("password reset completed", zap.Uint("user_id", resetToken.UserID))
		}

		return nil
	})

	return err
}

func (s *Service) createEmailVerificationToken(ctx context.Context, userID uint) (*EmailVerificationToken, error) {
	token, err := s.credentials.GenerateSecureToken(s.config.Auth.EmailVerificationTokenLength)
	if err != nil {
		return nil, err
	}

	verification := &EmailVerificationToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.config.Auth.EmailVerificationExpiry),
	}

	if err := s.db.WithContext(ctx).Create(verification).Error; err != nil {
		return nil, fmt.Errorf("failed to create email verification token: %w", err)
	}

	return verification, nil
}

// VerifyEmail consumes a verification token; same single-use contract as
// password reset.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		result := tx.Model(&EmailVerificationToken{}).
			Where("token = ? AND used = ? AND expires_at > ?", token, false, now).
			Updates(map[string]any{"used": true, "used_at": now})
		if result.Error != nil {
			return fmt.Errorf("failed to consume email verification token: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTokenInvalid
		}

		var verification EmailVerificationToken
		if err := tx.Where("token = ?", token).First(&verification).Error; err != nil {
			return fmt.Errorf("failed to load email verification token: %w", err)
		}

		if err := tx.Model(&User{}).Where("id = ?", verification.UserID).
			Update("email_verified", true).Error; err != nil {
			return fmt.Errorf("failed to mark email as verified: %w", err)
		}

		if s.logger != nil {
			s.logger.Info("email verified", zap.Uint("user_id", verification.UserID))
		}

		return nil
	})
}

// CleanupExpiredTokens removes stale single-use tokens. TTL expiry in the
// relational store is ours to run, unlike the shared key-value store.
func (s *Service) CleanupExpiredTokens(ctx context.Context) error {
	now := time.Now()

	if err := s.db.WithContext(ctx).Unscoped().
		Where("expires_at < ?", now).Delete(&PasswordResetToken{}).Error; err != nil {
		return fmt.Errorf("failed to cleanup password reset tokens: %w", err)
	}

	if err := s.db.WithContext(ctx).Unscoped().
		Where("expires_at < ?", now).Delete(&EmailVerificationToken{}).Error; err != nil {
		return fmt.Errorf("failed to cleanup email verification tokens: %w", err)
	}

	return nil
}
