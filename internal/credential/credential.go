// Package credential hashes, verifies and validates account passwords.
package credential

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password ValidatePolicy accepts.
const MinPasswordLength = 8

// Punctuation lists the characters that satisfy the symbol requirement.
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// DummyHash is compared against when a login names an unknown user, so the
// response time does not reveal whether the account exists.
var DummyHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC"

// Hash returns a salted bcrypt credential for password.
func Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether candidate matches the stored credential.
//
// Credentials written before bcrypt was introduced are plain hex SHA-256
// digests. When the stored value cannot be parsed as a bcrypt hash the
// candidate's digest is compared against it instead.
func Verify(credential, candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(credential), []byte(candidate))
	if err == nil {
		return true
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(legacyDigest(candidate)), []byte(credential)) == 1
}

// IsLegacy reports whether credential is an unsalted SHA-256 digest.
func IsLegacy(credential string) bool {
	if len(credential) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(credential)
	return err == nil
}

// ValidatePolicy reports whether password is long enough and contains at
// least one digit and one punctuation character.
func ValidatePolicy(password string) bool {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return false
	}

	var hasDigit, hasPunct bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(Punctuation, r):
			hasPunct = true
		}
	}
	return hasDigit && hasPunct
}

func legacyDigest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
