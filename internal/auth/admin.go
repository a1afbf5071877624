package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Admin is the single operator account allowed to change the catalog.
type Admin struct {
	Username     string
	PasswordHash []byte
}

func (a Admin) Verify(username, password string) error {
	username = strings.TrimSpace(username)

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.Username)) == 1
	if err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)); err != nil || !userOK {
		return ErrInvalidCredentials
	}
	return nil
}

func HashPassword(password string) (string, error) {
	password = strings.TrimSpace(password)
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
