package hierarchy

import "context"

// Repository loads hierarchy snapshots from the backing store.
type Repository interface {
	CharacterAffiliations(ctx context.Context) ([]CharacterAffiliation, error)
	CorporationAffiliations(ctx context.Context) ([]CorporationAffiliation, error)
}
