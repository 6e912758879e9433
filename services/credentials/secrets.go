package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const ivSize = 16

// EncryptedSecret is an API key at rest. The wire format is three
// colon-separated hex fields: iv:authTag:ciphertext.
type EncryptedSecret struct {
	IV         []byte
	AuthTag    []byte
	Ciphertext []byte
}

func (e EncryptedSecret) String() string {
	return fmt.Sprintf("%s:%s:%s",
		hex.EncodeToString(e.IV),
		hex.EncodeToString(e.AuthTag),
		hex.EncodeToString(e.Ciphertext))
}

// ParseEncryptedSecret validates field count and hex-decodability up front so
// call sites never re-split the raw blob.
func ParseEncryptedSecret(blob string) (EncryptedSecret, error) {
	parts := strings.Split(blob, ":")
	if len(parts) != 3 {
		return EncryptedSecret{}, fmt.Errorf("%w: expected 3 fields, got %d", ErrMalformedSecret, len(parts))
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return EncryptedSecret{}, fmt.Errorf("%w: invalid iv field: %w", ErrMalformedSecret, err)
	}
	authTag, err := hex.DecodeString(parts[1])
	if err != nil {
		return EncryptedSecret{}, fmt.Errorf("%w: invalid auth tag field: %w", ErrMalformedSecret, err)
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return EncryptedSecret{}, fmt.Errorf("%w: invalid ciphertext field: %w", ErrMalformedSecret, err)
	}

	if len(iv) != ivSize {
		return EncryptedSecret{}, fmt.Errorf("%w: iv must be %d bytes, got %d", ErrMalformedSecret, ivSize, len(iv))
	}

	return EncryptedSecret{IV: iv, AuthTag: authTag, Ciphertext: ciphertext}, nil
}

// EncryptSecret encrypts plain with AES-256-GCM under the process-wide key.
// A fresh random 16-byte IV is generated per call, so encrypting the same
// plaintext twice never yields the same blob.
func (s *Service) EncryptSecret(plain string) (string, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncryptionFailed, err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncryptionFailed, err)
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncryptionFailed, err)
	}

	sealed := aead.Seal(nil, iv, []byte(plain), nil)
	tagOffset := len(sealed) - aead.Overhead()

	secret := EncryptedSecret{
		IV:         iv,
		AuthTag:    sealed[tagOffset:],
		Ciphertext: sealed[:tagOffset],
	}

	return secret.String(), nil
}

// DecryptSecret fails closed: any tampering with the iv, auth tag, or
// ciphertext yields an error and no partial plaintext.
func (s *Service) DecryptSecret(blob string) (string, error) {
	secret, err := ParseEncryptedSecret(blob)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	sealed := append(append([]byte{}, secret.Ciphertext...), secret.AuthTag...)
	plain, err := aead.Open(nil, secret.IV, sealed, nil)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("secret decryption failed", zap.Error(err))
		}
		return "", fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	return string(plain), nil
}
