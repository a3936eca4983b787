package affiliation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sentinel-auth/sentinel/internal/hierarchy"
)

// Service orchestrates affiliation resolution: the superuser fast path, the
// cache read-through, the parallel snapshot loads, and the engine itself.
type Service struct {
	repo      Repository
	hierarchy *hierarchy.Provider
	cache     Cache
	cacheTTL  time.Duration
	engine    Engine
	metrics   *Metrics
	logger    *slog.Logger
}

// NewService constructs a Service. A nil cache disables caching; a nil
// metrics value disables instrumentation.
func NewService(repo Repository, provider *hierarchy.Provider, cache Cache, cacheTTL time.Duration, metrics *Metrics, logger *slog.Logger) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{
		repo:      repo,
		hierarchy: provider,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
		logger:    logger,
	}
}

// Resolve computes the set of entity ids the user may act upon under the
// permission. Any data-layer failure is returned as an error rather than a
// partial set, so a broken read can never be mistaken for a grant.
func (s *Service) Resolve(ctx context.Context, userID int64, permission string, filter RoleFilter) (EntitySet, error) {
	start := time.Now()

	super, err := s.repo.IsSuperUser(ctx, userID)
	if err != nil {
		s.metrics.ObserveResolution("error", time.Since(start))
		return nil, fmt.Errorf("affiliation: superuser check: %w", err)
	}
	if super {
		idx, err := s.hierarchy.Current(ctx)
		if err != nil {
			s.metrics.ObserveResolution("error", time.Since(start))
			return nil, fmt.Errorf("affiliation: hierarchy snapshot: %w", err)
		}
		s.metrics.CacheEvent("bypass")
		s.metrics.ObserveResolution("superuser", time.Since(start))
		return s.engine.Universal(idx), nil
	}

	return s.resolveScoped(ctx, start, userID, permission, filter)
}

// resolveScoped runs the rule-based resolution for a non-superuser.
func (s *Service) resolveScoped(ctx context.Context, start time.Time, userID int64, permission string, filter RoleFilter) (EntitySet, error) {
	idx, err := s.hierarchy.Current(ctx)
	if err != nil {
		s.metrics.ObserveResolution("error", time.Since(start))
		return nil, fmt.Errorf("affiliation: hierarchy snapshot: %w", err)
	}

	key := CacheKey(userID, permission, filter)
	if cached, hit, err := s.cache.Get(ctx, key); err != nil {
		// A broken cache read degrades to a fresh resolution.
		s.logger.Warn("affiliation cache read failed", slog.Any("error", err))
	} else if hit {
		s.metrics.CacheEvent("hit")
		s.metrics.ObserveResolution("cached", time.Since(start))
		return cached, nil
	} else {
		s.metrics.CacheEvent("miss")
	}

	var (
		owned []OwnedCharacter
		rules []Rule
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		owned, err = s.repo.OwnedCharacters(gctx, userID)
		if err != nil {
			return fmt.Errorf("affiliation: load ownership: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rules, err = s.repo.RulesForUser(gctx, userID, permission)
		if err != nil {
			return fmt.Errorf("affiliation: load rules: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.metrics.ObserveResolution("error", time.Since(start))
		return nil, err
	}

	ownedSet := ResolveOwnership(owned, filter)
	resolved := s.engine.Resolve(idx, ownedSet, GroupRules(rules))

	if err := s.cache.Put(ctx, key, resolved, s.cacheTTL, TagUser(userID), TagRules); err != nil {
		s.logger.Warn("affiliation cache write failed", slog.Any("error", err))
	}

	s.metrics.ObserveResolution("resolved", time.Since(start))
	return resolved, nil
}

// Check resolves and gates a batch of requested ids in one call. The
// superuser capability grants unconditionally before any gating, so every
// requested id passes regardless of kind, alliances included.
func (s *Service) Check(ctx context.Context, userID int64, permission string, filter RoleFilter, requested []EntityRef) (bool, error) {
	start := time.Now()

	super, err := s.repo.IsSuperUser(ctx, userID)
	if err != nil {
		s.metrics.ObserveResolution("error", time.Since(start))
		return false, fmt.Errorf("affiliation: superuser check: %w", err)
	}
	if super {
		s.metrics.ObserveResolution("superuser", time.Since(start))
		return true, nil
	}

	resolved, err := s.resolveScoped(ctx, start, userID, permission, filter)
	if err != nil {
		return false, err
	}
	return Authorized(resolved, requested), nil
}

// InvalidateUser drops every cached resolution for the user. Called when the
// user's owned characters or role membership change.
func (s *Service) InvalidateUser(ctx context.Context, userID int64) error {
	return s.cache.InvalidateTags(ctx, TagUser(userID))
}

// InvalidateRules drops every cached resolution touched by rule or scope
// changes.
func (s *Service) InvalidateRules(ctx context.Context) error {
	return s.cache.InvalidateTags(ctx, TagRules)
}
