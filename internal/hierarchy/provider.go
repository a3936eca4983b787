package hierarchy

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

type snapshot struct {
	index    *Index
	loadedAt time.Time
}

// Provider serves the current hierarchy Index, rebuilding it from the
// repository when the held snapshot is older than the configured TTL.
// Concurrent rebuild requests collapse into a single repository load.
type Provider struct {
	repo    Repository
	ttl     time.Duration
	current atomic.Pointer[snapshot]
	group   singleflight.Group
}

// NewProvider constructs a Provider. A non-positive ttl disables expiry so the
// snapshot only changes through explicit Refresh calls.
func NewProvider(repo Repository, ttl time.Duration) *Provider {
	return &Provider{repo: repo, ttl: ttl}
}

// Current returns a fresh-enough Index, loading one if necessary.
func (p *Provider) Current(ctx context.Context) (*Index, error) {
	if snap := p.current.Load(); snap != nil {
		if p.ttl <= 0 || time.Since(snap.loadedAt) < p.ttl {
			return snap.index, nil
		}
	}
	return p.Refresh(ctx)
}

// Refresh rebuilds the snapshot from the repository.
func (p *Provider) Refresh(ctx context.Context) (*Index, error) {
	v, err, _ := p.group.Do("refresh", func() (any, error) {
		chars, err := p.repo.CharacterAffiliations(ctx)
		if err != nil {
			return nil, fmt.Errorf("hierarchy: load characters: %w", err)
		}
		corps, err := p.repo.CorporationAffiliations(ctx)
		if err != nil {
			return nil, fmt.Errorf("hierarchy: load corporations: %w", err)
		}
		idx := NewIndex(chars, corps)
		p.current.Store(&snapshot{index: idx, loadedAt: time.Now()})
		return idx, nil
	})
	if err != nil {
		// Serve the stale snapshot if one exists rather than failing the
		// request outright.
		if snap := p.current.Load(); snap != nil {
			return snap.index, nil
		}
		return nil, err
	}
	return v.(*Index), nil
}
