package affiliation

// RuleSet holds a role's rules grouped by type. The three collections are
// disjoint: every rule carries exactly one type.
type RuleSet struct {
	Allowed   []Rule
	Inverse   []Rule
	Forbidden []Rule
}

// GroupRules splits a flat rule list by type. Rules with an unknown type or
// kind are dropped rather than failing the whole resolution.
func GroupRules(rules []Rule) RuleSet {
	var set RuleSet
	for _, rule := range rules {
		if !rule.Target.Kind.Valid() {
			continue
		}
		switch rule.Type {
		case RuleAllowed:
			set.Allowed = append(set.Allowed, rule)
		case RuleInverse:
			set.Inverse = append(set.Inverse, rule)
		case RuleForbidden:
			set.Forbidden = append(set.Forbidden, rule)
		}
	}
	return set
}

// Empty reports whether the set carries no rules at all.
func (rs RuleSet) Empty() bool {
	return len(rs.Allowed) == 0 && len(rs.Inverse) == 0 && len(rs.Forbidden) == 0
}
