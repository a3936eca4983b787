// Package affiliation implements the affiliation resolution engine: the
// computation that, for a user and a permission, produces the exact set of
// character, corporation, and alliance ids the user may act upon. Directly
// owned identities are combined with allowed, inverse, and forbidden rule
// grants declared per role, with ownership taking precedence over forbidden
// and forbidden taking precedence over the rule-based grants.
package affiliation

import (
	"sort"
	"time"
)

// EntityKind distinguishes the three id spaces the engine reasons over. A
// numeric id is only unique within its kind.
type EntityKind string

const (
	KindCharacter   EntityKind = "character"
	KindCorporation EntityKind = "corporation"
	KindAlliance    EntityKind = "alliance"
)

// Valid reports whether the kind is one of the three known id spaces.
func (k EntityKind) Valid() bool {
	switch k {
	case KindCharacter, KindCorporation, KindAlliance:
		return true
	}
	return false
}

// RuleType classifies an affiliation rule.
type RuleType string

const (
	RuleAllowed   RuleType = "allowed"
	RuleInverse   RuleType = "inverse"
	RuleForbidden RuleType = "forbidden"
)

// Valid reports whether the rule type is known.
func (t RuleType) Valid() bool {
	switch t {
	case RuleAllowed, RuleInverse, RuleForbidden:
		return true
	}
	return false
}

// EntityRef is a kind-tagged entity id.
type EntityRef struct {
	ID   int64      `json:"id"`
	Kind EntityKind `json:"kind"`
}

// Character builds a character reference.
func Character(id int64) EntityRef { return EntityRef{ID: id, Kind: KindCharacter} }

// Corporation builds a corporation reference.
func Corporation(id int64) EntityRef { return EntityRef{ID: id, Kind: KindCorporation} }

// Alliance builds an alliance reference.
func Alliance(id int64) EntityRef { return EntityRef{ID: id, Kind: KindAlliance} }

// Rule is one allowed, inverse, or forbidden grant attached to a role.
type Rule struct {
	ID        int64
	RoleID    int64
	Target    EntityRef
	Type      RuleType
	CreatedAt time.Time
}

// OwnedCharacter is one character owned by a user, with the corporation role
// tags the character holds upstream.
type OwnedCharacter struct {
	CharacterID      int64
	CorporationID    int64
	CorporationRoles []string
}

// EntitySet is a deduplicated set of kind-tagged entity ids.
type EntitySet map[EntityRef]struct{}

// NewEntitySet builds a set from the given references.
func NewEntitySet(refs ...EntityRef) EntitySet {
	s := make(EntitySet, len(refs))
	for _, ref := range refs {
		s[ref] = struct{}{}
	}
	return s
}

// Add inserts a reference.
func (s EntitySet) Add(ref EntityRef) {
	s[ref] = struct{}{}
}

// Contains reports membership of the exact (id, kind) pair.
func (s EntitySet) Contains(ref EntityRef) bool {
	_, ok := s[ref]
	return ok
}

// Len returns the number of members.
func (s EntitySet) Len() int {
	return len(s)
}

// Clone returns an independent copy.
func (s EntitySet) Clone() EntitySet {
	out := make(EntitySet, len(s))
	for ref := range s {
		out[ref] = struct{}{}
	}
	return out
}

// Union returns a new set holding members of both sets.
func (s EntitySet) Union(other EntitySet) EntitySet {
	out := make(EntitySet, len(s)+len(other))
	for ref := range s {
		out[ref] = struct{}{}
	}
	for ref := range other {
		out[ref] = struct{}{}
	}
	return out
}

// Subtract returns a new set holding members of s absent from other.
func (s EntitySet) Subtract(other EntitySet) EntitySet {
	out := make(EntitySet, len(s))
	for ref := range s {
		if _, drop := other[ref]; !drop {
			out[ref] = struct{}{}
		}
	}
	return out
}

// Equal reports order-independent equality.
func (s EntitySet) Equal(other EntitySet) bool {
	if len(s) != len(other) {
		return false
	}
	for ref := range s {
		if _, ok := other[ref]; !ok {
			return false
		}
	}
	return true
}

// IDs returns the member ids of one kind in ascending order.
func (s EntitySet) IDs(kind EntityKind) []int64 {
	var ids []int64
	for ref := range s {
		if ref.Kind == kind {
			ids = append(ids, ref.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Refs returns all members ordered by kind then id, for deterministic output.
func (s EntitySet) Refs() []EntityRef {
	refs := make([]EntityRef, 0, len(s))
	for ref := range s {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Kind != refs[j].Kind {
			return refs[i].Kind < refs[j].Kind
		}
		return refs[i].ID < refs[j].ID
	})
	return refs
}
