package credentials

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_EncryptDecryptSecret(t *testing.T) {
	svc := newTestService(t)

	t.Run("round trip", func(t *testing.T) {
		blob, err := svc.EncryptSecret("sk-verysecretapikey")
		require.NoError(t, err)

		plain, err := svc.DecryptSecret(blob)
		require.NoError(t, err)
		assert.Equal(t, "sk-verysecretapikey", plain)
	})

	t.Run("fresh IV per call", func(t *testing.T) {
		blob1, err := svc.EncryptSecret("sk-verysecretapikey")
		require.NoError(t, err)
		blob2, err := svc.EncryptSecret("sk-verysecretapikey")
		require.NoError(t, err)

		assert.NotEqual(t, blob1, blob2)
	})

	t.Run("empty plaintext round trips", func(t *testing.T) {
		blob, err := svc.EncryptSecret("")
		require.NoError(t, err)

		plain, err := svc.DecryptSecret(blob)
		require.NoError(t, err)
		assert.Equal(t, "", plain)
	})

	t.Run("wire format has three hex fields", func(t *testing.T) {
		blob, err := svc.EncryptSecret("sk-verysecretapikey")
		require.NoError(t, err)

		parts := strings.Split(blob, ":")
		require.Len(t, parts, 3)
		assert.Len(t, parts[0], ivSize*2)
		assert.Len(t, parts[1], 32)
	})
}

func TestService_DecryptSecretFailsClosed(t *testing.T) {
	svc := newTestService(t)

	blob, err := svc.EncryptSecret("sk-verysecretapikey")
	require.NoError(t, err)
	parts := strings.Split(blob, ":")

	t.Run("wrong field count", func(t *testing.T) {
		_, err := svc.DecryptSecret(parts[0] + ":" + parts[1])
		assert.ErrorIs(t, err, ErrMalformedSecret)
	})

	t.Run("non-hex field", func(t *testing.T) {
		_, err := svc.DecryptSecret("zz:" + parts[1] + ":" + parts[2])
		assert.ErrorIs(t, err, ErrMalformedSecret)
	})

	t.Run("tampered auth tag", func(t *testing.T) {
		tampered := flipHexByte(parts[1])
		_, err := svc.DecryptSecret(parts[0] + ":" + tampered + ":" + parts[2])
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		tampered := flipHexByte(parts[2])
		_, err := svc.DecryptSecret(parts[0] + ":" + parts[1] + ":" + tampered)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("wrong key", func(t *testing.T) {
		other := newTestService(t)
		other.key[0] ^= 0xff

		_, err := other.DecryptSecret(blob)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})
}

func TestParseEncryptedSecret(t *testing.T) {
	t.Run("rejects short iv", func(t *testing.T) {
		_, err := ParseEncryptedSecret("0001:00010203:00010203")
		assert.ErrorIs(t, err, ErrMalformedSecret)
	})

	t.Run("string round trip", func(t *testing.T) {
		svc := newTestService(t)
		blob, err := svc.EncryptSecret("sk-verysecretapikey")
		require.NoError(t, err)

		secret, err := ParseEncryptedSecret(blob)
		require.NoError(t, err)
		assert.Equal(t, blob, secret.String())
	})
}

func flipHexByte(field string) string {
	b := []byte(field)
	if b[0] == 'f' {
		b[0] = '0'
	} else {
		b[0] = 'f'
	}
	return string(b)
}
