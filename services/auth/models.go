package auth

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email         string `json:"email" gorm:"uniqueIndex;not null"`
	Name          string `json:"name"`
	PasswordHash  string `json:"-" gorm:"not null"`
	Role          string `json:"role" gorm:"default:user"`
	EmailVerified bool   `json:"email_verified" gorm:"default:false"`
}

func (User) TableName() string {
	return "users"
}

// PasswordResetToken is single-use: once Used is set or ExpiresAt passes,
// the token is permanently invalid regardless of re-presentation.
type PasswordResetToken struct {
	gorm.Model
	UserID    uint       `json:"user_id" gorm:"index;not null"`
	Token     string     `json:"-" gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	Used      bool       `json:"used" gorm:"default:false"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

type EmailVerificationToken struct {
	gorm.Model
	UserID    uint       `json:"user_id" gorm:"index;not null"`
	Token     string     `json:"-" gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	Used      bool       `json:"used" gorm:"default:false"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

func (EmailVerificationToken) TableName() string {
	return "email_verification_tokens"
}

// TokenPair is what a successful login or refresh hands back.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}
