package affiliation

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DirectorRole always qualifies a character's corporation for ownership,
// regardless of the requested role filter.
const DirectorRole = "Director"

var tagCaser = cases.Title(language.English)

// CanonicalRoleTag normalizes a corporation role tag to its canonical
// capitalized form: "director" and "DIRECTOR" become "Director",
// "personnel_manager" becomes "Personnel_Manager". Underscores separate
// words, so each segment is title-cased on its own.
func CanonicalRoleTag(tag string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(tag)), "_")
	for i, part := range parts {
		parts[i] = tagCaser.String(part)
	}
	return strings.Join(parts, "_")
}

// RoleFilter is a set of canonical corporation role tags that qualify a
// character's corporation for ownership.
type RoleFilter map[string]struct{}

// ParseRoleFilter splits a pipe-delimited role expression into a canonical
// filter. Empty segments are dropped; an empty expression yields a nil
// filter, meaning corporations are not resolved at all.
func ParseRoleFilter(expr string) RoleFilter {
	var filter RoleFilter
	for _, part := range strings.Split(expr, "|") {
		tag := CanonicalRoleTag(part)
		if tag == "" {
			continue
		}
		if filter == nil {
			filter = make(RoleFilter)
		}
		filter[tag] = struct{}{}
	}
	return filter
}

// Canonical returns the filter tags sorted and joined for use in cache keys.
func (f RoleFilter) Canonical() string {
	if len(f) == 0 {
		return ""
	}
	tags := make([]string, 0, len(f))
	for tag := range f {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return strings.Join(tags, "|")
}

func (f RoleFilter) qualifies(tags []string) bool {
	for _, raw := range tags {
		tag := CanonicalRoleTag(raw)
		if tag == DirectorRole {
			return true
		}
		if _, ok := f[tag]; ok {
			return true
		}
	}
	return false
}

// ResolveOwnership expands a user's owned characters into the set of entity
// ids the user directly owns. Every owned character is included. When the
// filter is non-empty, the character's corporation is also included provided
// the character holds Director or any filtered role tag.
func ResolveOwnership(owned []OwnedCharacter, filter RoleFilter) EntitySet {
	set := NewEntitySet()
	for _, oc := range owned {
		set.Add(Character(oc.CharacterID))
		if len(filter) == 0 || oc.CorporationID == 0 {
			continue
		}
		if filter.qualifies(oc.CorporationRoles) {
			set.Add(Corporation(oc.CorporationID))
		}
	}
	return set
}
