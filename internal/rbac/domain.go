package rbac

// Permission represents an atomic capability. Affiliation rules attach to
// roles; a role reaches an operation only through the permissions assigned
// to it.
type Permission struct {
	ID          int64
	Name        string
	Description string
}
