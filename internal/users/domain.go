package users

import "time"

// User represents a user account.
type User struct {
	ID          int64
	Email       string
	Name        string
	IsActive    bool
	IsSuperUser bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Character is one character linked to a user, with the corporation role
// tags the character holds upstream.
type Character struct {
	UserID           int64
	CharacterID      int64
	Name             string
	CorporationRoles []string
	CreatedAt        time.Time
}
