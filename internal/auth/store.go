package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

type User struct {
	ID    string
	Email string
	Hash  []byte
	Role  string
}

type UserStore interface {
	Create(ctx context.Context, email, password, role, id string) error
	Verify(ctx context.Context, email, password string) (User, error)
	Ping(ctx context.Context) error
}

type Recoverer interface {
	Recover(ctx context.Context, email string) error
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizePassword(s string) string {
	return strings.TrimSpace(s)
}

// unknownUserHash is compared against when the email is not registered, so a
// miss costs the same bcrypt round as a wrong password.
var unknownUserHash, _ = bcrypt.GenerateFromPassword([]byte("encarte-unknown-user"), bcrypt.DefaultCost)

func hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(normalizePassword(password)), bcrypt.DefaultCost)
}

// checkPassword reports ErrInvalidCredentials for a missing user (nil hash) or
// a mismatched password.
func checkPassword(hash []byte, password string) error {
	known := hash != nil
	if !known {
		hash = unknownUserHash
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(normalizePassword(password))); err != nil || !known {
		return ErrInvalidCredentials
	}
	return nil
}
