package affiliation

import (
	"github.com/sentinel-auth/sentinel/internal/hierarchy"
)

// Engine combines ownership with rule-based grants over a hierarchy snapshot.
// All methods are pure functions of their inputs; an Engine value carries no
// state and is safe for concurrent use.
type Engine struct{}

// Resolve computes the set of entity ids a user may act upon:
//
//	owned ∪ (allowed − forbidden) ∪ (inverse − forbidden)
//
// where forbidden has already been reduced by the owned set, so ownership
// always wins over a forbidden rule, and forbidden wins over allowed and
// inverse grants for anything the user does not own.
func (Engine) Resolve(idx *hierarchy.Index, owned EntitySet, rules RuleSet) EntitySet {
	forbidden := evalForbidden(idx, rules.Forbidden, owned)
	allowed := evalAllowed(idx, rules.Allowed).Subtract(forbidden)
	inverted := evalInverse(idx, rules.Inverse).Subtract(forbidden)
	return owned.Union(allowed).Union(inverted)
}

// Universal returns the unrestricted set granted to superusers: every known
// character and corporation id.
func (Engine) Universal(idx *hierarchy.Index) EntitySet {
	set := NewEntitySet()
	for _, id := range idx.Characters() {
		set.Add(Character(id))
	}
	for _, id := range idx.Corporations() {
		set.Add(Corporation(id))
	}
	return set
}

// expandTarget adds the target entity and every descendant in the hierarchy.
// An allowed corporation covers its characters and itself; an allowed
// alliance covers its characters, corporations, and itself. Ids unknown to
// the snapshot expand to themselves only.
func expandTarget(idx *hierarchy.Index, target EntityRef, out EntitySet) {
	out.Add(target)
	switch target.Kind {
	case KindCorporation:
		for _, id := range idx.CharactersOfCorporation(target.ID) {
			out.Add(Character(id))
		}
	case KindAlliance:
		for _, id := range idx.CharactersOfAlliance(target.ID) {
			out.Add(Character(id))
		}
		for _, id := range idx.CorporationsOfAlliance(target.ID) {
			out.Add(Corporation(id))
		}
	}
}

// evalAllowed expands every allowed rule into concrete entity ids.
func evalAllowed(idx *hierarchy.Index, rules []Rule) EntitySet {
	set := NewEntitySet()
	for _, rule := range rules {
		expandTarget(idx, rule.Target, set)
	}
	return set
}

// evalForbidden expands forbidden rules exactly like allowed ones, then
// removes everything the user owns: ownership has absolute precedence over
// forbidden, even for an alliance-wide ban.
func evalForbidden(idx *hierarchy.Index, rules []Rule, owned EntitySet) EntitySet {
	if len(rules) == 0 {
		return NewEntitySet()
	}
	set := NewEntitySet()
	for _, rule := range rules {
		expandTarget(idx, rule.Target, set)
	}
	return set.Subtract(owned)
}

// evalInverse grants everything except the named entities and their
// descendants. Each rule kind is evaluated independently against its own
// universe: a kind with no inverse rules contributes nothing, never
// "everyone". An inverse rule on a character therefore restricts only the
// character space; it does not pull that character's corporation out of a
// separate corporation-kind contribution.
func evalInverse(idx *hierarchy.Index, rules []Rule) EntitySet {
	targets := make(map[EntityKind]map[int64]struct{})
	for _, rule := range rules {
		kind := rule.Target.Kind
		if targets[kind] == nil {
			targets[kind] = make(map[int64]struct{})
		}
		targets[kind][rule.Target.ID] = struct{}{}
	}

	set := NewEntitySet()

	if chars := targets[KindCharacter]; len(chars) > 0 {
		for _, id := range idx.Characters() {
			if _, hit := chars[id]; !hit {
				set.Add(Character(id))
			}
		}
	}

	if corps := targets[KindCorporation]; len(corps) > 0 {
		for _, id := range idx.Characters() {
			corpID, ok := idx.CorporationOf(id)
			if ok {
				if _, hit := corps[corpID]; hit {
					continue
				}
			}
			set.Add(Character(id))
		}
		for _, id := range idx.Corporations() {
			if _, hit := corps[id]; !hit {
				set.Add(Corporation(id))
			}
		}
	}

	if alliances := targets[KindAlliance]; len(alliances) > 0 {
		for _, id := range idx.Characters() {
			allianceID, ok := idx.AllianceOfCharacter(id)
			if ok {
				if _, hit := alliances[allianceID]; hit {
					continue
				}
			}
			set.Add(Character(id))
		}
		for _, id := range idx.Corporations() {
			allianceID, ok := idx.AllianceOf(id)
			if ok {
				if _, hit := alliances[allianceID]; hit {
					continue
				}
			}
			set.Add(Corporation(id))
		}
		for _, id := range idx.Alliances() {
			if _, hit := alliances[id]; !hit {
				set.Add(Alliance(id))
			}
		}
	}

	return set
}
