package affiliation

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentinel-auth/sentinel/internal/shared"
)

// PGRepository provides PostgreSQL backed snapshot reads.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// OwnedCharacters returns the user's characters with corporation role tags.
func (r *PGRepository) OwnedCharacters(ctx context.Context, userID int64) ([]OwnedCharacter, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT uc.character_id,
		       COALESCE(ca.corporation_id, 0),
		       COALESCE(uc.corporation_roles, '{}')
		FROM user_characters uc
		LEFT JOIN character_affiliations ca ON ca.character_id = uc.character_id
		WHERE uc.user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var owned []OwnedCharacter
	for rows.Next() {
		var oc OwnedCharacter
		if err := rows.Scan(&oc.CharacterID, &oc.CorporationID, &oc.CorporationRoles); err != nil {
			return nil, err
		}
		owned = append(owned, oc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return owned, nil
}

// RulesForUser returns rules of the user's active roles granting permission.
func (r *PGRepository) RulesForUser(ctx context.Context, userID int64, permission string) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ar.id, ar.role_id, ar.affiliatable_id, ar.affiliatable_kind, ar.rule_type, ar.created_at
		FROM affiliation_rules ar
		JOIN user_roles ur ON ur.role_id = ar.role_id AND ur.user_id = $1
		JOIN role_permissions rp ON rp.role_id = ar.role_id
		JOIN permissions p ON p.id = rp.permission_id AND p.name = $2`, userID, permission)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []Rule
	for rows.Next() {
		var rule Rule
		var kind, ruleType string
		if err := rows.Scan(&rule.ID, &rule.RoleID, &rule.Target.ID, &kind, &ruleType, &rule.CreatedAt); err != nil {
			return nil, err
		}
		rule.Target.Kind = EntityKind(kind)
		rule.Type = RuleType(ruleType)
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}

// IsSuperUser checks the account flag and role-granted superuser permission.
func (r *PGRepository) IsSuperUser(ctx context.Context, userID int64) (bool, error) {
	var super bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE id = $1 AND is_superuser
		) OR EXISTS (
			SELECT 1
			FROM user_roles ur
			JOIN role_permissions rp ON rp.role_id = ur.role_id
			JOIN permissions p ON p.id = rp.permission_id
			WHERE ur.user_id = $1 AND p.name = $2
		)`, userID, shared.PermSuperuser).Scan(&super)
	if err != nil {
		return false, err
	}
	return super, nil
}
