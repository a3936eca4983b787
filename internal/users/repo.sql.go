package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

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

// ListUsers returns all users.
func (r *PGRepository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, name, is_active, is_superuser, created_at, updated_at
		FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.IsActive, &u.IsSuperUser, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches a user by ID.
func (r *PGRepository) GetUser(ctx context.Context, id int64) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, is_active, is_superuser, created_at, updated_at
		FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.IsActive, &u.IsSuperUser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// ListCharacters returns the user's linked characters.
func (r *PGRepository) ListCharacters(ctx context.Context, userID int64) ([]Character, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, character_id, name, COALESCE(corporation_roles, '{}'), created_at
		FROM user_characters
		WHERE user_id = $1
		ORDER BY character_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chars []Character
	for rows.Next() {
		var c Character
		if err := rows.Scan(&c.UserID, &c.CharacterID, &c.Name, &c.CorporationRoles, &c.CreatedAt); err != nil {
			return nil, err
		}
		chars = append(chars, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chars, nil
}

// AddCharacter links a character to the user.
func (r *PGRepository) AddCharacter(ctx context.Context, c Character) (Character, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_characters (user_id, character_id, name, corporation_roles)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		c.UserID, c.CharacterID, c.Name, c.CorporationRoles).Scan(&c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Character{}, httpx.ErrDuplicate
		}
		return Character{}, err
	}
	return c, nil
}

// RemoveCharacter unlinks a character from the user.
func (r *PGRepository) RemoveCharacter(ctx context.Context, userID, characterID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_characters WHERE user_id = $1 AND character_id = $2`, userID, characterID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetCharacterRoles replaces the corporation role tags on a linked character.
func (r *PGRepository) SetCharacterRoles(ctx context.Context, userID, characterID int64, roles []string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE user_characters SET corporation_roles = $3
		WHERE user_id = $1 AND character_id = $2`, userID, characterID, roles)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
