package security

import (
	"golang.org/x/crypto/bcrypt"

	"baatcheet/tools/errs"
)

const minPasswordLen = 6

// HashPassword bcrypt-hashes a plaintext password.
func HashPassword(plain string) (string, error) {
	if len(plain) < minPasswordLen {
		return "", errs.ErrArgs.WithDetail("password must be at least 6 characters")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", errs.Wrap(err)
	}
	return string(b), nil
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
