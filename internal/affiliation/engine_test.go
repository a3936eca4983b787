package affiliation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-auth/sentinel/internal/hierarchy"
)

// testIndex builds the fixed universe every engine test runs against:
//
//	alliance 1000: corp 100 (chars 1, 2), corp 200 (char 3)
//	alliance 2000: corp 300 (char 4)
//	no alliance:   corp 400 (char 5), corp 500 (char 6)
func testIndex() *hierarchy.Index {
	return hierarchy.NewIndex(
		[]hierarchy.CharacterAffiliation{
			{CharacterID: 1, CorporationID: 100, AllianceID: 1000},
			{CharacterID: 2, CorporationID: 100, AllianceID: 1000},
			{CharacterID: 3, CorporationID: 200, AllianceID: 1000},
			{CharacterID: 4, CorporationID: 300, AllianceID: 2000},
			{CharacterID: 5, CorporationID: 400},
			{CharacterID: 6, CorporationID: 500},
		},
		[]hierarchy.CorporationAffiliation{
			{CorporationID: 100, AllianceID: 1000},
			{CorporationID: 200, AllianceID: 1000},
			{CorporationID: 300, AllianceID: 2000},
			{CorporationID: 400},
			{CorporationID: 500},
		},
	)
}

func allowed(target EntityRef) Rule   { return Rule{Target: target, Type: RuleAllowed} }
func inverse(target EntityRef) Rule   { return Rule{Target: target, Type: RuleInverse} }
func forbidden(target EntityRef) Rule { return Rule{Target: target, Type: RuleForbidden} }

func TestResolveOwnershipOnly(t *testing.T) {
	var engine Engine
	owned := NewEntitySet(Character(1), Corporation(100))

	got := engine.Resolve(testIndex(), owned, RuleSet{})

	require.True(t, got.Equal(owned))
}

func TestResolveNoOwnershipNoRules(t *testing.T) {
	var engine Engine

	got := engine.Resolve(testIndex(), NewEntitySet(), RuleSet{})

	require.Zero(t, got.Len())
}

func TestAllowedCorporationExpandsToMembers(t *testing.T) {
	var engine Engine
	rules := RuleSet{Allowed: []Rule{allowed(Corporation(100))}}

	got := engine.Resolve(testIndex(), NewEntitySet(), rules)

	require.True(t, got.Equal(NewEntitySet(
		Character(1), Character(2), Corporation(100),
	)))
}

func TestAllowedAllianceExpandsToMembersAndCorps(t *testing.T) {
	var engine Engine
	rules := RuleSet{Allowed: []Rule{allowed(Alliance(1000))}}

	got := engine.Resolve(testIndex(), NewEntitySet(), rules)

	require.True(t, got.Equal(NewEntitySet(
		Character(1), Character(2), Character(3),
		Corporation(100), Corporation(200),
		Alliance(1000),
	)))
}

func TestForbiddenRemovesFromAllowedExpansion(t *testing.T) {
	var engine Engine
	rules := RuleSet{
		Allowed:   []Rule{allowed(Corporation(100))},
		Forbidden: []Rule{forbidden(Character(2))},
	}

	got := engine.Resolve(testIndex(), NewEntitySet(), rules)

	require.True(t, got.Equal(NewEntitySet(Character(1), Corporation(100))))
}

func TestOwnershipOverridesForbidden(t *testing.T) {
	var engine Engine
	rules := RuleSet{
		Allowed:   []Rule{allowed(Corporation(100))},
		Forbidden: []Rule{forbidden(Character(2))},
	}
	owned := NewEntitySet(Character(2))

	got := engine.Resolve(testIndex(), owned, rules)

	require.True(t, got.Equal(NewEntitySet(
		Character(1), Character(2), Corporation(100),
	)))
}

func TestOwnershipOverridesAllianceWideBan(t *testing.T) {
	var engine Engine
	rules := RuleSet{
		Allowed:   []Rule{allowed(Alliance(1000))},
		Forbidden: []Rule{forbidden(Alliance(1000))},
	}
	owned := NewEntitySet(Character(1))

	got := engine.Resolve(testIndex(), owned, rules)

	// The ban swallows the entire alliance grant except the owned character.
	require.True(t, got.Equal(NewEntitySet(Character(1))))
}

func TestForbiddenCorporationRemovesMembersFromAllianceGrant(t *testing.T) {
	var engine Engine
	rules := RuleSet{
		Allowed:   []Rule{allowed(Alliance(1000))},
		Forbidden: []Rule{forbidden(Corporation(200))},
	}

	got := engine.Resolve(testIndex(), NewEntitySet(), rules)

	require.True(t, got.Equal(NewEntitySet(
		Character(1), Character(2),
		Corporation(100),
		Alliance(1000),
	)))
}

func TestInverseCharacterGrantsAllOtherCharacters(t *testing.T) {
	var engine Engine
	rules := RuleSet{Inverse: []Rule{inverse(Character(1))}}

	got := engine.Resolve(testIndex(), NewEntitySet(), rules)

	require.Equal(t, []int64{2, 3, 4, 5, 6}, got.IDs(KindCharacter))
	require.Empty(t, got.IDs(KindCorporation))
	require.Empty(t, got.IDs(KindAlliance))
}

func TestInverseCorporationGrantsOutsiders(t *testing.T) {
	var engine Engine
	rules := RuleSet{Inverse: []Rule{inverse(Corporation(100))}}

	got := engine.Resolve(testIndex(), NewEntitySet(), rules)

	require.Equal(t, []int64{3, 4, 5, 6}, got.IDs(KindCharacter))
	require.Equal(t, []int64{200, 300, 400, 500}, got.IDs(KindCorporation))
	require.Empty(t, got.IDs(KindAlliance))
}

func TestInverseAllianceGrantsOutsiders(t *testing.T) {
	var engine Engine
	rules := RuleSet{Inverse: []Rule{inverse(Alliance(1000))}}

	got := engine.Resolve(testIndex(), NewEntitySet(), rules)

	require.Equal(t, []int64{4, 5, 6}, got.IDs(KindCharacter))
	require.Equal(t, []int64{300, 400, 500}, got.IDs(KindCorporation))
	require.Equal(t, []int64{2000}, got.IDs(KindAlliance))
}

func TestInverseKindsEvaluateIndependently(t *testing.T) {
	var engine Engine
	// Only a character-kind inverse rule exists. The corporation and
	// alliance universes must contribute nothing rather than everything.
	rules := RuleSet{Inverse: []Rule{inverse(Character(1)), inverse(Character(2))}}

	got := engine.Resolve(testIndex(), NewEntitySet(), rules)

	require.Equal(t, []int64{3, 4, 5, 6}, got.IDs(KindCharacter))
	require.Empty(t, got.IDs(KindCorporation))
	require.Empty(t, got.IDs(KindAlliance))
}

func TestInverseForbiddenPrecedence(t *testing.T) {
	var engine Engine
	rules := RuleSet{
		Inverse:   []Rule{inverse(Character(1))},
		Forbidden: []Rule{forbidden(Character(3))},
	}

	got := engine.Resolve(testIndex(), NewEntitySet(), rules)

	require.Equal(t, []int64{2, 4, 5, 6}, got.IDs(KindCharacter))
}

func TestUnknownTargetExpandsToItself(t *testing.T) {
	var engine Engine
	rules := RuleSet{Allowed: []Rule{allowed(Corporation(999))}}

	got := engine.Resolve(testIndex(), NewEntitySet(), rules)

	require.True(t, got.Equal(NewEntitySet(Corporation(999))))
}

func TestResolveDeterministic(t *testing.T) {
	var engine Engine
	owned := NewEntitySet(Character(5))
	rules := RuleSet{
		Allowed:   []Rule{allowed(Alliance(1000)), allowed(Corporation(300))},
		Inverse:   []Rule{inverse(Corporation(500))},
		Forbidden: []Rule{forbidden(Character(2))},
	}
	idx := testIndex()

	first := engine.Resolve(idx, owned, rules)
	for i := 0; i < 10; i++ {
		require.True(t, engine.Resolve(idx, owned, rules).Equal(first))
	}
}

func TestUniversalCoversCharactersAndCorporations(t *testing.T) {
	var engine Engine

	got := engine.Universal(testIndex())

	require.Equal(t, []int64{1, 2, 3, 4, 5, 6}, got.IDs(KindCharacter))
	require.Equal(t, []int64{100, 200, 300, 400, 500}, got.IDs(KindCorporation))
	require.Empty(t, got.IDs(KindAlliance))
}

func TestGroupRulesDropsMalformed(t *testing.T) {
	set := GroupRules([]Rule{
		allowed(Character(1)),
		inverse(Corporation(100)),
		forbidden(Alliance(1000)),
		{Target: EntityRef{ID: 9, Kind: "faction"}, Type: RuleAllowed},
		{Target: Character(2), Type: "blocked"},
	})

	require.Len(t, set.Allowed, 1)
	require.Len(t, set.Inverse, 1)
	require.Len(t, set.Forbidden, 1)
	require.False(t, set.Empty())
	require.True(t, RuleSet{}.Empty())
}
