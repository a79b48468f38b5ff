package models

import (
	"strings"
	"time"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin Role = "admin"
)

// User represents an account of the mobile app.
type User struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	UID            string    `bson:"uid,omitempty" json:"uid,omitempty"`
	Name           string    `bson:"name,omitempty" json:"name,omitempty"`
	Email          string    `bson:"email,omitempty" json:"email,omitempty"`
	Phone          string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Role           string    `bson:"role,omitempty" json:"role,omitempty"`
	Status         string    `bson:"status,omitempty" json:"status,omitempty"`
	JoinDate       string    `bson:"joinDate,omitempty" json:"joinDate,omitempty"`
	ProfilePicture string    `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	Location       *Location `bson:"location,omitempty" json:"location,omitempty"`
}

// UserStatusActive is the status the app writes for enabled accounts.
const UserStatusActive = "Active"

// AdminIdentity is the identity carried by an admin session.
type AdminIdentity struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Name  string `json:"name"`
	ID    string `json:"id"`
}

// Matches reports whether the identity is the given admin: same email
// (case-insensitive) and the admin role.
func (a AdminIdentity) Matches(admin AdminIdentity) bool {
	return a.Role == RoleAdmin && strings.EqualFold(a.Email, admin.Email)
}

// Session is a persisted proof of an authenticated admin.
type Session struct {
	User      AdminIdentity `json:"user"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// Expired reports whether now is past the session's expiration.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	User      AdminIdentity `json:"user"`
	ExpiresAt time.Time     `json:"expiresAt"`
}
