package roles

import "time"

// Role groups permissions, members, and affiliation rules.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Member is one user holding a role.
type Member struct {
	UserID    int64
	RoleID    int64
	CreatedAt time.Time
}
