// Package pin hashes and verifies account PINs with salted PBKDF2-SHA256.
// Stored hashes have the form "salt$hash" with both parts base64-encoded.
package pin

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLen    = 16
	iterations = 100_000
	keyLen     = 32
)

// Hash derives a salted digest of code, suitable for storage.
func Hash(code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("pin is empty")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := pbkdf2.Key([]byte(code), salt, iterations, keyLen, sha256.New)

	return base64.RawStdEncoding.EncodeToString(salt) + "$" + base64.RawStdEncoding.EncodeToString(hash), nil
}

// Verify reports whether code matches the stored digest. Malformed stored
// values verify as false, never as an error.
func Verify(code, stored string) bool {
	if code == "" || stored == "" {
		return false
	}

	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	got := pbkdf2.Key([]byte(code), salt, iterations, len(want), sha256.New)

	return subtle.ConstantTimeCompare(got, want) == 1
}
