package types

// GroupStatus is the group's coarse protocol phase, persisted per spec.md
// §3 and §9 ("explicit tagged states persisted to disk").
type GroupStatus string

const (
	GroupInvited    GroupStatus = "invited"
	GroupAccepted   GroupStatus = "accepted"
	GroupRejected   GroupStatus = "rejected"
	GroupRound1Done GroupStatus = "round1_done"
	GroupRound2Done GroupStatus = "round2_done"
	GroupFinalized  GroupStatus = "finalized"
	GroupAborted    GroupStatus = "aborted"
	// GroupPartial is local-only: the coordinator's view after some, but
	// not all, participants accepted (spec.md §8 scenario 2).
	GroupPartial GroupStatus = "partial"
)

// GroupParticipant is one ordered member of a group, with its deterministic
// FROST identifier (spec.md §4.5: "1-based rank of XID byte-orderings").
type GroupParticipant struct {
	XID        XID
	PetName    PetName `json:",omitempty"`
	Identifier Identifier
}

// ContributionPaths records the on-disk artifacts this party has produced
// for a group so far; empty fields mean "not yet produced."
type ContributionPaths struct {
	Round1Secret  string `json:",omitempty"`
	Round1Package string `json:",omitempty"`
	Round2Secret  string `json:",omitempty"`
	KeyPackage    string `json:",omitempty"`
}

// GroupRecord is the registry's per-group entry, keyed by the group ARID.
type GroupRecord struct {
	GroupID      ARID
	Charter      string
	MinSigners   int
	Coordinator  XID
	Participants []GroupParticipant
	Status       GroupStatus
	Paths        ContributionPaths
	VerifyingKey VerifyingKey `json:",omitempty"`

	// Missing records participants absent from a collection when the group
	// is marked aborted, for caller diagnostics (spec.md §4.5 tie-breaks).
	Missing []XID `json:",omitempty"`
}

// IdentifierOf returns the FROST identifier assigned to xid within this
// group record, or 0 (invalid) if xid is not a participant.
func (g GroupRecord) IdentifierOf(xid XID) Identifier {
	for _, p := range g.Participants {
		if p.XID == xid {
			return p.Identifier
		}
	}
	return 0
}
