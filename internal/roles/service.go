package roles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sentinel-auth/sentinel/internal/affiliation"
)

// Invalidator drops cached resolutions after mutations. Satisfied by
// affiliation.Service.
type Invalidator interface {
	InvalidateRules(ctx context.Context) error
	InvalidateUser(ctx context.Context, userID int64) error
}

// Enqueuer schedules asynchronous invalidation so worker-side consumers
// converge even if the synchronous invalidation is lost.
type Enqueuer interface {
	EnqueueInvalidation(ctx context.Context, tags ...string) error
}

// Service orchestrates role administration.
type Service struct {
	repo        Repository
	invalidator Invalidator
	enqueuer    Enqueuer
	logger      *slog.Logger
}

// NewService constructs a Service. The enqueuer may be nil when no worker is
// deployed.
func NewService(repo Repository, invalidator Invalidator, enqueuer Enqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, invalidator: invalidator, enqueuer: enqueuer, logger: logger}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("roles: role name required")
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
}

// UpdateRole updates an existing role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("roles: role name required")
	}
	return s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description))
}

// DeleteRole removes a role, cascading its rules, and drops every cached
// resolution the rules may have shaped.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.invalidateRules(ctx)
	return nil
}

// AssignRole assigns a role to the given user.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.invalidateUser(ctx, userID)
	return nil
}

// RemoveRole removes a role from a user.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.RemoveRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.invalidateUser(ctx, userID)
	return nil
}

// ListRules returns the role's affiliation rules.
func (s *Service) ListRules(ctx context.Context, roleID int64) ([]affiliation.Rule, error) {
	return s.repo.ListRules(ctx, roleID)
}

// AddRule validates and attaches an affiliation rule to a role.
func (s *Service) AddRule(ctx context.Context, roleID int64, targetID int64, kind affiliation.EntityKind, ruleType affiliation.RuleType) (affiliation.Rule, error) {
	if targetID <= 0 {
		return affiliation.Rule{}, errors.New("roles: rule target id required")
	}
	if !kind.Valid() {
		return affiliation.Rule{}, fmt.Errorf("roles: unknown entity kind %q", kind)
	}
	if !ruleType.Valid() {
		return affiliation.Rule{}, fmt.Errorf("roles: unknown rule type %q", ruleType)
	}
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return affiliation.Rule{}, err
	}
	rule, err := s.repo.AddRule(ctx, affiliation.Rule{
		RoleID: roleID,
		Target: affiliation.EntityRef{ID: targetID, Kind: kind},
		Type:   ruleType,
	})
	if err != nil {
		return affiliation.Rule{}, err
	}
	s.invalidateRules(ctx)
	return rule, nil
}

// RemoveRule detaches a rule from a role.
func (s *Service) RemoveRule(ctx context.Context, roleID, ruleID int64) error {
	if err := s.repo.RemoveRule(ctx, roleID, ruleID); err != nil {
		return err
	}
	s.invalidateRules(ctx)
	return nil
}

func (s *Service) invalidateRules(ctx context.Context) {
	if err := s.invalidator.InvalidateRules(ctx); err != nil {
		s.logger.Warn("rules cache invalidation failed", slog.Any("error", err))
	}
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueInvalidation(ctx, affiliation.TagRules); err != nil {
			s.logger.Warn("rules invalidation enqueue failed", slog.Any("error", err))
		}
	}
}

func (s *Service) invalidateUser(ctx context.Context, userID int64) {
	if err := s.invalidator.InvalidateUser(ctx, userID); err != nil {
		s.logger.Warn("user cache invalidation failed", slog.Int64("user_id", userID), slog.Any("error", err))
	}
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueInvalidation(ctx, affiliation.TagUser(userID)); err != nil {
			s.logger.Warn("user invalidation enqueue failed", slog.Any("error", err))
		}
	}
}
