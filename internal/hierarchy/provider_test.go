package hierarchy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type countingRepo struct {
	mu    sync.Mutex
	loads int
	chars []CharacterAffiliation
	corps []CorporationAffiliation
	err   error
}

func (r *countingRepo) CharacterAffiliations(context.Context) ([]CharacterAffiliation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	if r.err != nil {
		return nil, r.err
	}
	return r.chars, nil
}

func (r *countingRepo) CorporationAffiliations(context.Context) ([]CorporationAffiliation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.corps, nil
}

func (r *countingRepo) loadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}

func TestProviderLoadsOnceWithinTTL(t *testing.T) {
	repo := &countingRepo{
		chars: []CharacterAffiliation{{CharacterID: 1, CorporationID: 100}},
	}
	p := NewProvider(repo, time.Hour)
	ctx := context.Background()

	first, err := p.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	second, err := p.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if first != second {
		t.Fatal("expected the same snapshot within the TTL")
	}
	if got := repo.loadCount(); got != 1 {
		t.Fatalf("expected one repository load, got %d", got)
	}
}

func TestProviderRefreshReplacesSnapshot(t *testing.T) {
	repo := &countingRepo{
		chars: []CharacterAffiliation{{CharacterID: 1, CorporationID: 100}},
	}
	p := NewProvider(repo, time.Hour)
	ctx := context.Background()

	first, err := p.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}

	repo.mu.Lock()
	repo.chars = append(repo.chars, CharacterAffiliation{CharacterID: 2, CorporationID: 100})
	repo.mu.Unlock()

	refreshed, err := p.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed == first {
		t.Fatal("expected a new snapshot after Refresh")
	}
	if got := len(refreshed.Characters()); got != 2 {
		t.Fatalf("expected 2 characters after refresh, got %d", got)
	}
}

func TestProviderServesStaleSnapshotOnFailure(t *testing.T) {
	repo := &countingRepo{
		chars: []CharacterAffiliation{{CharacterID: 1, CorporationID: 100}},
	}
	p := NewProvider(repo, time.Hour)
	ctx := context.Background()

	first, err := p.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}

	repo.mu.Lock()
	repo.err = errors.New("connection refused")
	repo.mu.Unlock()

	stale, err := p.Refresh(ctx)
	if err != nil {
		t.Fatalf("expected stale snapshot instead of error, got %v", err)
	}
	if stale != first {
		t.Fatal("expected the previous snapshot to be served")
	}
}

func TestProviderFailsWithoutAnySnapshot(t *testing.T) {
	repo := &countingRepo{err: errors.New("connection refused")}
	p := NewProvider(repo, time.Hour)

	if _, err := p.Current(context.Background()); err == nil {
		t.Fatal("expected an error when no snapshot has ever loaded")
	}
}

func TestProviderConcurrentRequestsCollapse(t *testing.T) {
	repo := &countingRepo{
		chars: []CharacterAffiliation{{CharacterID: 1, CorporationID: 100}},
	}
	p := NewProvider(repo, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Current(ctx); err != nil {
				t.Errorf("Current: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := repo.loadCount(); got < 1 || got > 3 {
		t.Fatalf("expected collapsed loads, got %d", got)
	}
}
