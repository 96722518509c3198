package auth

import (
	"errors"
	"fmt"
	"strings"

	"powerpanel/internal/conf"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredential is returned for a malformed --add-user value
var ErrInvalidCredential = errors.New("credential must look like name:password")

// ParseCredential splits a "name:password" pair as given to --add-user
func ParseCredential(value string) (name string, password string, err error) {
	name, password, found := strings.Cut(value, ":")
	name = strings.TrimSpace(name)
	if !found || name == "" || password == "" {
		return "", "", ErrInvalidCredential
	}
	return name, password, nil
}

// NewUser creates a new user with hashed password and saves it to the config file
func NewUser(name string, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	newConf := conf.Read()
	newConf.Auth.Users[name] = string(hash)

	if err = conf.Write(newConf); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// VerifyPassword verifies a user's password against the stored hash
func VerifyPassword(name string, password string) bool {
	hashedPassword, exists := conf.GetUsers()[name]
	if !exists {
		return false
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
