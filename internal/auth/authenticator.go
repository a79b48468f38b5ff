package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/ukydev/fuelroute-admin/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Authenticator verifies credentials and decides which identities may hold
// a session. Replacing it with a backend call leaves the Manager unchanged.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (models.AdminIdentity, error)
	Recognizes(identity models.AdminIdentity) bool
}

// StaticAuthenticator recognizes exactly one admin identity.
type StaticAuthenticator struct {
	admin        models.AdminIdentity
	passwordHash []byte
}

// NewStaticAuthenticator creates an authenticator for admin whose password
// matches the bcrypt passwordHash.
func NewStaticAuthenticator(admin models.AdminIdentity, passwordHash string) (*StaticAuthenticator, error) {
	if admin.Email == "" {
		return nil, fmt.Errorf("admin email must not be empty")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("invalid admin password hash: %w", err)
	}
	admin.Role = models.RoleAdmin
	return &StaticAuthenticator{admin: admin, passwordHash: []byte(passwordHash)}, nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// Admin returns the recognized identity.
func (a *StaticAuthenticator) Admin() models.AdminIdentity {
	return a.admin
}

// Authenticate checks the email case-insensitively, then the password.
func (a *StaticAuthenticator) Authenticate(ctx context.Context, email, password string) (models.AdminIdentity, error) {
	if !equalFoldConstantTime(email, a.admin.Email) {
		return models.AdminIdentity{}, &Error{
			Kind:    ErrAccessDenied,
			Message: fmt.Sprintf("Access denied. Only %s is allowed.", a.admin.Email),
		}
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return models.AdminIdentity{}, &Error{
			Kind:    ErrInvalidCredential,
			Message: "Invalid password. Please try again.",
		}
	}
	return a.admin, nil
}

// Recognizes reports whether identity is the admin with the admin role.
func (a *StaticAuthenticator) Recognizes(identity models.AdminIdentity) bool {
	return identity.Matches(a.admin)
}

func equalFoldConstantTime(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(a)), []byte(strings.ToLower(b))) == 1
}
