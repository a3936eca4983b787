package hierarchy

// CharacterAffiliation is one row of the flattened character hierarchy.
// AllianceID is zero when the character's corporation holds no alliance
// membership.
type CharacterAffiliation struct {
	CharacterID   int64
	CorporationID int64
	AllianceID    int64
}

// CorporationAffiliation maps a corporation to its alliance. AllianceID is
// zero for corporations outside any alliance.
type CorporationAffiliation struct {
	CorporationID int64
	AllianceID    int64
}
