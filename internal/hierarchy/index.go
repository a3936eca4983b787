// Package hierarchy maintains a read-only index of the character →
// corporation → alliance ownership chain. The index answers ancestor and
// descendant lookups over arbitrary id sets without per-id round trips.
package hierarchy

// Index is an immutable snapshot of the identity hierarchy. All lookups are
// safe for concurrent use.
type Index struct {
	characterCorp     map[int64]int64
	characterAlliance map[int64]int64
	corpAlliance      map[int64]int64

	corpCharacters     map[int64][]int64
	allianceCharacters map[int64][]int64
	allianceCorps      map[int64][]int64

	characters   []int64
	corporations []int64
	alliances    []int64
}

// NewIndex builds an Index from flattened affiliation rows. Corporations that
// appear only through character rows are indexed as well.
func NewIndex(chars []CharacterAffiliation, corps []CorporationAffiliation) *Index {
	idx := &Index{
		characterCorp:      make(map[int64]int64, len(chars)),
		characterAlliance:  make(map[int64]int64),
		corpAlliance:       make(map[int64]int64, len(corps)),
		corpCharacters:     make(map[int64][]int64),
		allianceCharacters: make(map[int64][]int64),
		allianceCorps:      make(map[int64][]int64),
	}

	for _, c := range corps {
		if _, seen := idx.corpAlliance[c.CorporationID]; !seen {
			idx.corporations = append(idx.corporations, c.CorporationID)
		}
		idx.corpAlliance[c.CorporationID] = c.AllianceID
		if c.AllianceID != 0 {
			idx.allianceCorps[c.AllianceID] = append(idx.allianceCorps[c.AllianceID], c.CorporationID)
		}
	}

	for _, c := range chars {
		if _, dup := idx.characterCorp[c.CharacterID]; dup {
			continue
		}
		idx.characters = append(idx.characters, c.CharacterID)
		idx.characterCorp[c.CharacterID] = c.CorporationID
		if c.CorporationID != 0 {
			if _, seen := idx.corpAlliance[c.CorporationID]; !seen {
				idx.corporations = append(idx.corporations, c.CorporationID)
				idx.corpAlliance[c.CorporationID] = c.AllianceID
				if c.AllianceID != 0 {
					idx.allianceCorps[c.AllianceID] = append(idx.allianceCorps[c.AllianceID], c.CorporationID)
				}
			}
			idx.corpCharacters[c.CorporationID] = append(idx.corpCharacters[c.CorporationID], c.CharacterID)
		}
		if c.AllianceID != 0 {
			idx.characterAlliance[c.CharacterID] = c.AllianceID
			idx.allianceCharacters[c.AllianceID] = append(idx.allianceCharacters[c.AllianceID], c.CharacterID)
		}
	}

	seen := make(map[int64]struct{}, len(idx.allianceCorps))
	for allianceID := range idx.allianceCorps {
		seen[allianceID] = struct{}{}
	}
	for allianceID := range idx.allianceCharacters {
		seen[allianceID] = struct{}{}
	}
	idx.alliances = make([]int64, 0, len(seen))
	for allianceID := range seen {
		idx.alliances = append(idx.alliances, allianceID)
	}

	return idx
}

// CorporationOf returns the corporation a character belongs to. Unknown
// characters yield no ancestor.
func (idx *Index) CorporationOf(characterID int64) (int64, bool) {
	id, ok := idx.characterCorp[characterID]
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}

// AllianceOfCharacter returns the alliance in a character's ancestor chain.
func (idx *Index) AllianceOfCharacter(characterID int64) (int64, bool) {
	id, ok := idx.characterAlliance[characterID]
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}

// AllianceOf returns the alliance a corporation belongs to.
func (idx *Index) AllianceOf(corporationID int64) (int64, bool) {
	id, ok := idx.corpAlliance[corporationID]
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}

// CharactersOfCorporation returns every known character in the corporation.
func (idx *Index) CharactersOfCorporation(corporationID int64) []int64 {
	return idx.corpCharacters[corporationID]
}

// CharactersOfAlliance returns every known character under the alliance.
func (idx *Index) CharactersOfAlliance(allianceID int64) []int64 {
	return idx.allianceCharacters[allianceID]
}

// CorporationsOfAlliance returns every known corporation under the alliance.
func (idx *Index) CorporationsOfAlliance(allianceID int64) []int64 {
	return idx.allianceCorps[allianceID]
}

// Characters returns all known character ids.
func (idx *Index) Characters() []int64 {
	return idx.characters
}

// Corporations returns all known corporation ids.
func (idx *Index) Corporations() []int64 {
	return idx.corporations
}

// Alliances returns all known alliance ids.
func (idx *Index) Alliances() []int64 {
	return idx.alliances
}
