package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is returned when the portal password does not match.
var ErrBadCredentials = errors.New("bad credentials")

// VerifyPortalPassword checks the teacher-portal password against the
// configured bcrypt hash. This is the only authorization the portal has.
func VerifyPortalPassword(hash, password string) error {
	if hash == "" {
		return ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrBadCredentials
	}
	return nil
}

// HashPortalPassword produces a bcrypt hash for provisioning.
func HashPortalPassword(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
