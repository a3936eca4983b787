package affiliation

import "context"

// Repository provides the read snapshot a single resolution runs against.
// All methods are set-oriented bulk loads; resolution never issues per-id
// queries.
type Repository interface {
	// OwnedCharacters returns every character the user owns together with
	// the character's corporation and corporation role tags.
	OwnedCharacters(ctx context.Context, userID int64) ([]OwnedCharacter, error)

	// RulesForUser returns the affiliation rules of every role the user is
	// an active member of, restricted to roles granting the permission. An
	// unknown permission yields zero rules, not an error.
	RulesForUser(ctx context.Context, userID int64, permission string) ([]Rule, error)

	// IsSuperUser reports whether the user holds the superuser capability,
	// either through the account flag or through any active role granting
	// the superuser permission.
	IsSuperUser(ctx context.Context, userID int64) (bool, error)
}
