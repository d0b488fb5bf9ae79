// Package envelope implements the Credential Envelope: the boundary
// between in-memory SSH credential structures and the opaque
// (ciphertext, nonce, salt) triple stored server-side. The server never
// sees plaintext; it may double-wrap the triple with its own key but
// never reads through it.
package envelope

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Kind values for Error, mirroring the base spec's Crypto error kind
// (§7): decrypt tag mismatch or unparseable ciphertext, never transmitted.
type ErrKind int

const (
	ErrDecrypt ErrKind = iota
	ErrMalformed
)

type Error struct {
	Kind ErrKind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func newErr(k ErrKind, msg string) *Error { return &Error{Kind: k, msg: msg} }

const (
	saltSize = 16
	keySize  = chacha20poly1305.KeySize // 32 bytes -> 256-bit key
	// argon2id parameters: deliberately modest so per-record encrypt/decrypt
	// stays fast on a desktop client while remaining memory-hard.
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
)

// deriveKey runs argon2id over secret with salt, producing a 256-bit AEAD key.
func deriveKey(secret string, salt []byte) []byte {
	return argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, uint32(keySize))
}

// NewSalt returns a fresh random salt suitable for a new envelope. The
// salt is fixed per envelope construction (user-level) but may be stored
// per-record for forward compatibility, per the base spec's design rules.
func NewSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Encrypt serialises authMethod to its canonical byte form, derives a
// 256-bit key from userSecret with a memory-hard KDF, and encrypts with
// an AEAD under a fresh random 96-bit nonce. All three outputs are
// base64-encoded, ready for the wire or for disk.
func Encrypt(method AuthMethod, userSecret string, salt []byte) (ciphertextB64, nonceB64, saltB64 string, err error) {
	plaintext, err := method.marshal()
	if err != nil {
		return "", "", "", err
	}

	if salt == nil {
		salt, err = NewSalt()
		if err != nil {
			return "", "", "", err
		}
	}

	key := deriveKey(userSecret, salt)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", "", "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", "", "", err
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	return base64.StdEncoding.EncodeToString(ciphertext),
		base64.StdEncoding.EncodeToString(nonce),
		base64.StdEncoding.EncodeToString(salt),
		nil
}

// Decrypt inverts Encrypt. When nonceB64 is empty it falls back to
// treating ciphertextB64 as a plain base64 blob of the legacy
// (pre-AEAD) record format, per the base spec's §9 migration rule.
func Decrypt(ciphertextB64, nonceB64, userSecret, saltB64 string) (AuthMethod, error) {
	if nonceB64 == "" {
		raw, err := base64.StdEncoding.DecodeString(ciphertextB64)
		if err != nil {
			return AuthMethod{}, newErr(ErrMalformed, "legacy blob is not valid base64")
		}
		m, err := unmarshalAuthMethod(raw)
		if err != nil {
			return AuthMethod{}, newErr(ErrMalformed, "legacy blob is not a valid auth method")
		}
		return m, nil
	}

	if saltB64 == "" {
		return AuthMethod{}, newErr(ErrMalformed, "missing salt for AEAD envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return AuthMethod{}, newErr(ErrMalformed, "ciphertext is not valid base64")
	}
	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil {
		return AuthMethod{}, newErr(ErrMalformed, "nonce is not valid base64")
	}
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return AuthMethod{}, newErr(ErrMalformed, "salt is not valid base64")
	}

	key := deriveKey(userSecret, salt)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return AuthMethod{}, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return AuthMethod{}, newErr(ErrDecrypt, "decryption failed: authentication tag mismatch")
	}

	m, err := unmarshalAuthMethod(plaintext)
	if err != nil {
		return AuthMethod{}, newErr(ErrMalformed, "decrypted blob is not a valid auth method")
	}
	return m, nil
}

// deviceSalt is fixed because the device_id itself already behaves as a
// per-device secret; a random salt would have to be stored alongside it
// with no added protection, since both would live on the same device.
var deviceSalt = []byte("ssh-terminal-sub000/device-bound-envelope-v1")[:saltSize]

// EncryptDeviceBound encrypts plaintext (an access token, refresh token,
// or password the client stores on disk) with a key derived from
// device_id, so copying the on-disk database to another machine yields
// unreadable secrets (base spec §4.1 device-bound variant).
func EncryptDeviceBound(plaintext []byte, deviceID string) (ciphertextB64, nonceB64 string, err error) {
	key := deriveKey(deviceID, deviceSalt)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", "", err
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), base64.StdEncoding.EncodeToString(nonce), nil
}

// DecryptDeviceBound inverts EncryptDeviceBound.
func DecryptDeviceBound(ciphertextB64, nonceB64, deviceID string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, newErr(ErrMalformed, "ciphertext is not valid base64")
	}
	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil {
		return nil, newErr(ErrMalformed, "nonce is not valid base64")
	}

	key := deriveKey(deviceID, deviceSalt)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, newErr(ErrDecrypt, "device-bound decryption failed")
	}
	return plaintext, nil
}

// ErrIs reports whether err is an envelope *Error of the given kind.
func ErrIs(err error, kind ErrKind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
