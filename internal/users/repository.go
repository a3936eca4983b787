package users

import "context"

// Repository persists user accounts and their character links.
type Repository interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)

	ListCharacters(ctx context.Context, userID int64) ([]Character, error)
	AddCharacter(ctx context.Context, c Character) (Character, error)
	RemoveCharacter(ctx context.Context, userID, characterID int64) error
	SetCharacterRoles(ctx context.Context, userID, characterID int64, roles []string) error
}
