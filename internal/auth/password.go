package auth

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is deliberately above bcrypt.DefaultCost; admin logins are rare
// enough that the extra work factor is affordable.
const bcryptCost = 12

const passwordMinLength = 8

// passwordSymbols is the fixed set of accepted special characters.
const passwordSymbols = "@$!%*?&#^()-_=+"

// HashPassword hashes a plaintext password with bcrypt. The result embeds a
// random salt, so hashing the same plaintext twice yields different values.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plaintext matches the stored hash. A wrong
// password returns (false, nil); an error is returned only for a malformed
// or missing hash, which callers should treat as an internal failure rather
// than a credential mismatch.
func CheckPassword(plaintext, hash string) (bool, error) {
	if strings.TrimSpace(hash) == "" {
		return false, errors.New("empty password hash")
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// ValidatePassword enforces the password policy: at least 8 characters with
// one uppercase letter, one lowercase letter, one digit, and one symbol from
// the accepted set. Returns ErrWeakPassword when the policy is not met.
func ValidatePassword(plaintext string) error {
	if len(plaintext) < passwordMinLength {
		return ErrWeakPassword
	}
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range plaintext {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		return ErrWeakPassword
	}
	return nil
}
