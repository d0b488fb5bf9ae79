package envelope

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	pass := "swordfish"
	cases := []AuthMethod{
		NewPasswordAuth("hunter2"),
		NewKeyAuth("/home/alice/.ssh/id_ed25519", nil),
		NewKeyAuth("/home/alice/.ssh/id_rsa", strPtr("key-passphrase")),
	}

	for _, method := range cases {
		ciphertext, nonce, salt, err := Encrypt(method, pass, nil)
		require.NoError(t, err)
		require.NotEmpty(t, ciphertext)
		require.NotEmpty(t, nonce)
		require.NotEmpty(t, salt)

		got, err := Decrypt(ciphertext, nonce, pass, salt)
		require.NoError(t, err)
		assert.Equal(t, method, got)
	}
}

func TestDecryptWrongSecretFails(t *testing.T) {
	ciphertext, nonce, salt, err := Encrypt(NewPasswordAuth("hunter2"), "correct-secret", nil)
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, nonce, "wrong-secret", salt)
	require.Error(t, err)
	assert.True(t, ErrIs(err, ErrDecrypt))
}

func TestDecryptLegacyNoNonceFallback(t *testing.T) {
	method := NewPasswordAuth("legacy-secret")
	raw, err := method.marshal()
	require.NoError(t, err)
	legacyBlob := base64.StdEncoding.EncodeToString(raw)

	got, err := Decrypt(legacyBlob, "", "whatever-secret-is-ignored", "")
	require.NoError(t, err)
	assert.Equal(t, method, got)
}

func TestEncryptNoncesAreRandomPerCall(t *testing.T) {
	method := NewPasswordAuth("hunter2")
	_, nonce1, _, err := Encrypt(method, "secret", nil)
	require.NoError(t, err)
	_, nonce2, _, err := Encrypt(method, "secret", nil)
	require.NoError(t, err)
	assert.NotEqual(t, nonce1, nonce2)
}

func TestDeviceBoundRoundTrip(t *testing.T) {
	plaintext := []byte("a-real-access-token")
	ciphertext, nonce, err := EncryptDeviceBound(plaintext, "device-123")
	require.NoError(t, err)

	got, err := DecryptDeviceBound(ciphertext, nonce, "device-123")
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)

	_, err = DecryptDeviceBound(ciphertext, nonce, "device-456")
	require.Error(t, err)
}

func strPtr(s string) *string { return &s }
