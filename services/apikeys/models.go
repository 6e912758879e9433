package apikeys

import (
	"gorm.io/gorm"
)

// APIKey stores a provider credential for a user. The key itself is only
// ever persisted as an encrypted blob.
type APIKey struct {
	gorm.Model
	UserID       uint   `gorm:"uniqueIndex:idx_api_keys_user_provider;not null" json:"userId"`
	Provider     string `gorm:"uniqueIndex:idx_api_keys_user_provider;not null" json:"provider"`
	EncryptedKey string `gorm:"not null" json:"-"`
}

func (APIKey) TableName() string {
	return "api_keys"
}

// APIKeyInfo is the listing shape: it carries a masked preview instead of
// the key material.
type APIKeyInfo struct {
	ID        uint   `json:"id"`
	Provider  string `json:"provider"`
	MaskedKey string `json:"maskedKey"`
}
