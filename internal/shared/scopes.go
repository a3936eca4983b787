package shared

// Core platform permissions.
const (
	PermSuperuser = "superuser"

	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermCharactersView = "characters.view"
	PermCharactersEdit = "characters.edit"

	PermCorporationsView = "corporations.view"
	PermAlliancesView    = "alliances.view"
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersEdit,
		PermRolesView,
		PermRolesEdit,
		PermCharactersView,
		PermCharactersEdit,
		PermCorporationsView,
		PermAlliancesView,
	}
}
