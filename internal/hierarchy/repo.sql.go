package hierarchy

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository provides PostgreSQL backed snapshot loads.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CharacterAffiliations returns the full flattened character hierarchy in a
// single query.
func (r *PGRepository) CharacterAffiliations(ctx context.Context) ([]CharacterAffiliation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT character_id, corporation_id, COALESCE(alliance_id, 0)
		FROM character_affiliations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var affiliations []CharacterAffiliation
	for rows.Next() {
		var a CharacterAffiliation
		if err := rows.Scan(&a.CharacterID, &a.CorporationID, &a.AllianceID); err != nil {
			return nil, err
		}
		affiliations = append(affiliations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return affiliations, nil
}

// CorporationAffiliations returns every known corporation with its alliance.
func (r *PGRepository) CorporationAffiliations(ctx context.Context) ([]CorporationAffiliation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT corporation_id, COALESCE(alliance_id, 0)
		FROM corporation_affiliations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var affiliations []CorporationAffiliation
	for rows.Next() {
		var a CorporationAffiliation
		if err := rows.Scan(&a.CorporationID, &a.AllianceID); err != nil {
			return nil, err
		}
		affiliations = append(affiliations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return affiliations, nil
}
