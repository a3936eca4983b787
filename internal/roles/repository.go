package roles

import (
	"context"

	"github.com/sentinel-auth/sentinel/internal/affiliation"
)

// Repository persists roles and their affiliation rules.
type Repository interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name, description string) (Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string) (Role, error)
	// DeleteRole removes a role; its rules, permission grants, and
	// memberships cascade.
	DeleteRole(ctx context.Context, id int64) error

	AssignRole(ctx context.Context, userID, roleID int64) error
	RemoveRole(ctx context.Context, userID, roleID int64) error

	ListRules(ctx context.Context, roleID int64) ([]affiliation.Rule, error)
	AddRule(ctx context.Context, rule affiliation.Rule) (affiliation.Rule, error)
	RemoveRule(ctx context.Context, roleID, ruleID int64) error
}
