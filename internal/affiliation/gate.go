package affiliation

// Authorized reports whether the resolved set covers every requested id for
// its kind. The gate is all-or-nothing: a single uncovered id denies the
// whole batch. An empty batch is denied; callers validate request shape
// before reaching the gate.
func Authorized(resolved EntitySet, requested []EntityRef) bool {
	if len(requested) == 0 {
		return false
	}
	for _, ref := range requested {
		if !resolved.Contains(ref) {
			return false
		}
	}
	return true
}
