// Package auth implements credential verification and server-side
// sessions. Passwords are hashed with scrypt and stored as
// "<hexHash>.<hexSalt>"; sessions are opaque random identifiers
// persisted in the session store, with an HMAC-signed cookie value so
// a tampered cookie is rejected before any lookup.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt cost parameters; keyed to interactive-login latency.
const (
	scryptN = 16384
	scryptR = 8
	scryptP = 1
	saltLen = 16
	keyLen  = 64
)

// HashPassword derives a salted scrypt hash of the password and
// returns it in "<hexHash>.<hexSalt>" form.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return "", fmt.Errorf("derive key: %w", err)
	}
	return hex.EncodeToString(key) + "." + hex.EncodeToString(salt), nil
}

// VerifyPassword recomputes the scrypt hash of the supplied password
// with the stored salt and compares it in constant time.
func VerifyPassword(stored, supplied string) (bool, error) {
	hashHex, saltHex, ok := strings.Cut(stored, ".")
	if !ok {
		return false, errors.New("malformed password hash")
	}
	hash, err := hex.DecodeString(hashHex)
	if err != nil {
		return false, fmt.Errorf("decode stored hash: %w", err)
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false, fmt.Errorf("decode stored salt: %w", err)
	}
	key, err := scrypt.Key([]byte(supplied), salt, scryptN, scryptR, scryptP, len(hash))
	if err != nil {
		return false, fmt.Errorf("derive key: %w", err)
	}
	return subtle.ConstantTimeCompare(hash, key) == 1, nil
}
