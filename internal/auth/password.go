package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrNoPassword is returned when a stored identity has no password set
var ErrNoPassword = errors.New("no password set")

// HashPassword hashes a plain text password using bcrypt.
// An empty password stays empty so placeholder identities cannot log in.
func HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword compares a bcrypt hashed password with a plain text password
func ComparePassword(hash, plain string) error {
	if hash == "" {
		return ErrNoPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
