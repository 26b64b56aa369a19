// Package cryptox implements the password hashing scheme used by the
// credential store: a per-user random salt appended to the password and
// digested with SHA-256, stored hex-encoded.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/ilepins/userauth/internal/shared"
)

// SaltBytes is the number of random bytes in a salt. Hex encoding doubles
// the stored length (16 bytes => 32 characters).
const SaltBytes = 16

// NewSalt returns a fresh cryptographically random salt, hex-encoded.
func NewSalt() (string, error) {
	return shared.MakeRandHexString(SaltBytes)
}

// HashPassword digests password||salt and returns the hex-encoded result.
// The salt is stored alongside the hash; it is never derived from it.
func HashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword recomputes the digest for the candidate password and the
// stored salt and compares it to the stored hash in constant time.
func VerifyPassword(password, salt, storedHash string) bool {
	candidate := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(storedHash)) == 1
}
