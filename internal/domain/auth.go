package domain

import "time"

// Identity is the request-scoped caller carried by a session.
type Identity struct {
	ID      string
	Name    string
	IsAdmin bool
}

// Session represents an issued login session.
type Session struct {
	ID        string
	Identity  Identity
	ExpiresAt time.Time
	IssuedAt  time.Time
}
