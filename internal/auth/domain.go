package auth

import "time"

// User is an account that can hold sessions, roles, and owned characters.
// Inactive accounts fail authentication regardless of credentials.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
