package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Credentials holds the processor's Basic-auth credentials from config.
// When PasswordBcrypt is set it wins over the plaintext Password.
type Credentials struct {
	Login          string
	Password       string
	PasswordBcrypt string
}

func (c Credentials) Match(login, password string) bool {
	loginOK := subtle.ConstantTimeCompare([]byte(login), []byte(c.Login)) == 1
	if c.PasswordBcrypt != "" {
		return loginOK && bcrypt.CompareHashAndPassword([]byte(c.PasswordBcrypt), []byte(password)) == nil
	}
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	return loginOK && passOK
}

func HashPassword(p string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	return string(b), err
}
