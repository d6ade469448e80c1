// Package auth implements the single-operator login gate: a
// credential store backed by a bcrypt hash and an in-memory session
// manager issuing opaque cookie tokens.
package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialStore verifies login credentials. The application has
// exactly one operator today, but handlers only ever see this
// interface.
type CredentialStore interface {
	Verify(username, password string) error
}

// StaticCredentialStore holds a single username and bcrypt password
// hash, typically loaded from configuration.
type StaticCredentialStore struct {
	username     string
	passwordHash []byte
}

func NewStaticCredentialStore(username, passwordHash string) *StaticCredentialStore {
	return &StaticCredentialStore{
		username:     username,
		passwordHash: []byte(passwordHash),
	}
}

// Verify checks username and password, returning ErrInvalidCredentials
// on any mismatch. The username comparison is constant-time so the two
// failure cases are indistinguishable.
func (s *StaticCredentialStore) Verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword hashes a plain text password using bcrypt. Used by the
// setup tooling to produce OPERATOR_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
