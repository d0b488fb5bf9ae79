// Package password hashes account passwords with a memory-hard KDF
// (base spec §4.7 step 2), replacing the teacher's bcrypt with argon2id
// from the same golang.org/x/crypto module the teacher already depends
// on — argon2id is explicitly memory-hard where bcrypt's fixed small
// working set is not, and the spec calls for memory-hard hashing by name.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltLen = 16
	keyLen  = 32
	time_   = 1
	memory  = 64 * 1024
	threads = 4
)

// Hash returns a self-describing PHC-like string: algorithm, parameters,
// salt, and derived key, all base64-encoded so Verify needs no external
// configuration to check a previously stored hash.
func Hash(plain string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plain), salt, time_, memory, threads, keyLen)
	return fmt.Sprintf("argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, time_, threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// Verify reports whether plain matches the stored argon2id hash, using a
// constant-time comparison on the derived key.
func Verify(plain, stored string) (bool, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 5 || parts[0] != "argon2id" {
		return false, fmt.Errorf("unrecognised password hash format")
	}

	var m uint32
	var t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false, fmt.Errorf("parse hash params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("decode key: %w", err)
	}

	got := argon2.IDKey([]byte(plain), salt, t, m, p, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
