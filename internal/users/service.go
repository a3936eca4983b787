package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sentinel-auth/sentinel/internal/affiliation"
)

// Invalidator drops a user's cached resolutions after ownership mutations.
// Satisfied by affiliation.Service.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID int64) error
}

// Enqueuer schedules asynchronous cache invalidation.
type Enqueuer interface {
	EnqueueInvalidation(ctx context.Context, tags ...string) error
}

// Service orchestrates user and owned-character management.
type Service struct {
	repo        Repository
	invalidator Invalidator
	enqueuer    Enqueuer
	logger      *slog.Logger
}

// NewService constructs a Service. The enqueuer may be nil.
func NewService(repo Repository, invalidator Invalidator, enqueuer Enqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, invalidator: invalidator, enqueuer: enqueuer, logger: logger}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// ListCharacters returns the user's linked characters.
func (s *Service) ListCharacters(ctx context.Context, userID int64) ([]Character, error) {
	return s.repo.ListCharacters(ctx, userID)
}

// AddCharacter links a character to a user and invalidates the user's cached
// resolutions.
func (s *Service) AddCharacter(ctx context.Context, userID, characterID int64, name string, corporationRoles []string) (Character, error) {
	if characterID <= 0 {
		return Character{}, errors.New("users: character id required")
	}
	c, err := s.repo.AddCharacter(ctx, Character{
		UserID:           userID,
		CharacterID:      characterID,
		Name:             strings.TrimSpace(name),
		CorporationRoles: corporationRoles,
	})
	if err != nil {
		return Character{}, err
	}
	s.invalidate(ctx, userID)
	return c, nil
}

// RemoveCharacter unlinks a character from a user.
func (s *Service) RemoveCharacter(ctx context.Context, userID, characterID int64) error {
	if err := s.repo.RemoveCharacter(ctx, userID, characterID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// SetCharacterRoles replaces a linked character's corporation role tags.
func (s *Service) SetCharacterRoles(ctx context.Context, userID, characterID int64, roles []string) error {
	if err := s.repo.SetCharacterRoles(ctx, userID, characterID, roles); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, userID int64) {
	if err := s.invalidator.InvalidateUser(ctx, userID); err != nil {
		s.logger.Warn("user cache invalidation failed", slog.Int64("user_id", userID), slog.Any("error", err))
	}
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueInvalidation(ctx, affiliation.TagUser(userID)); err != nil {
			s.logger.Warn("user invalidation enqueue failed", slog.Any("error", err))
		}
	}
}
