// Package auth decides whether the operator is the admin or a guest.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	appLog "eventease/internal/log"
)

// DefaultPassword seeds the admin hash on first run. Operators should change
// it with -set-admin-password.
const DefaultPassword = "admin123"

type Role int

const (
	RoleGuest Role = iota
	RoleAdmin
)

func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "guest"
}

// CanMutate reports whether the role may create, edit, delete, sort or import.
func (r Role) CanMutate() bool {
	return r == RoleAdmin
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Gate checks login attempts against the configured admin hash.
type Gate struct {
	hash []byte
}

func NewGate(hash string) *Gate {
	return &Gate{hash: []byte(hash)}
}

// Login grants admin when password matches the hash and guest otherwise.
// An empty password is a deliberate guest login.
func (g *Gate) Login(password string) Role {
	if password == "" || len(g.hash) == 0 {
		return RoleGuest
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			appLog.Error("admin hash check failed", err)
		}
		return RoleGuest
	}
	return RoleAdmin
}
