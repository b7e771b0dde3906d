package domain

import (
	"strings"
	"time"
)

// Column widths shared by accounts and contact messages.
const (
	MaxNameLength  = 120
	MaxEmailLength = 255
)

// User is an account holder who books appointments; admins also review them.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity returns the session-facing view of the user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, IsAdmin: u.IsAdmin}
}

// NormalizeEmail trims and lowercases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
