package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrSecretMismatch is returned when a presented secret does not match.
var ErrSecretMismatch = errors.New("secret mismatch")

// HashSecret hashes a plaintext secret for storage in the credential
// list.
func HashSecret(secret string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifySecret checks a presented secret against a stored one. Stored
// values starting with a bcrypt prefix are compared as hashes; anything
// else is treated as a plaintext authcode and compared in constant
// time, which keeps older credential files working.
func VerifySecret(stored, presented string) error {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(presented)); err != nil {
			return ErrSecretMismatch
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return ErrSecretMismatch
	}
	return nil
}
