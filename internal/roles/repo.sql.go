package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentinel-auth/sentinel/internal/affiliation"
	"github.com/sentinel-auth/sentinel/internal/platform/httpx"
	"github.com/sentinel-auth/sentinel/internal/shared"
)

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const uniqueViolation = "23505"

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ListRoles returns all roles.
func (r *PGRepository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// GetRole fetches a role by ID.
func (r *PGRepository) GetRole(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles WHERE id = $1`, id).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// CreateRole inserts a new role.
func (r *PGRepository) CreateRole(ctx context.Context, name, description string) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, created_at, updated_at`, name, description).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return Role{}, httpx.ErrDuplicate
		}
		return Role{}, err
	}
	return role, nil
}

// UpdateRole updates an existing role.
func (r *PGRepository) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `
		UPDATE roles SET name = $2, description = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, name, description, created_at, updated_at`, id, name, description).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		if isDuplicate(err) {
			return Role{}, httpx.ErrDuplicate
		}
		return Role{}, err
	}
	return role, nil
}

// DeleteRole removes a role by ID. The affiliation_rules, role_permissions,
// and user_roles rows cascade at the schema level.
func (r *PGRepository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AssignRole makes the user an active member of the role.
func (r *PGRepository) AssignRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, userID, roleID)
	return err
}

// RemoveRole revokes the user's membership.
func (r *PGRepository) RemoveRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	return err
}

// ListRules returns the role's affiliation rules.
func (r *PGRepository) ListRules(ctx context.Context, roleID int64) ([]affiliation.Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, role_id, affiliatable_id, affiliatable_kind, rule_type, created_at
		FROM affiliation_rules
		WHERE role_id = $1
		ORDER BY id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []affiliation.Rule
	for rows.Next() {
		var rule affiliation.Rule
		var kind, ruleType string
		if err := rows.Scan(&rule.ID, &rule.RoleID, &rule.Target.ID, &kind, &ruleType, &rule.CreatedAt); err != nil {
			return nil, err
		}
		rule.Target.Kind = affiliation.EntityKind(kind)
		rule.Type = affiliation.RuleType(ruleType)
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}

// AddRule attaches an affiliation rule to the role.
func (r *PGRepository) AddRule(ctx context.Context, rule affiliation.Rule) (affiliation.Rule, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO affiliation_rules (role_id, affiliatable_id, affiliatable_kind, rule_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		rule.RoleID, rule.Target.ID, string(rule.Target.Kind), string(rule.Type)).
		Scan(&rule.ID, &rule.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return affiliation.Rule{}, httpx.ErrDuplicate
		}
		return affiliation.Rule{}, err
	}
	return rule, nil
}

// RemoveRule detaches a rule from the role.
func (r *PGRepository) RemoveRule(ctx context.Context, roleID, ruleID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM affiliation_rules WHERE id = $1 AND role_id = $2`, ruleID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
