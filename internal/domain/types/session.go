package types

// SessionStatus is the signing session's coarse local phase.
type SessionStatus string

const (
	SessionStarted   SessionStatus = "started"
	SessionReceived  SessionStatus = "received"
	SessionCommitted SessionStatus = "committed"
	SessionShared    SessionStatus = "shared"
	SessionFinalized SessionStatus = "finalized"
	SessionAttached  SessionStatus = "attached"
	SessionAborted   SessionStatus = "aborted"
)

// SigningParticipant is one signer's routing record within a session.
type SigningParticipant struct {
	XID          XID
	Identifier   Identifier
	CommitARID   ARID
	ShareARID    ARID
	FinalizeARID ARID
}

// SessionRecord is the per-group, per-session state spec.md §3/§4.2
// describes: the target envelope, participant routing, and whatever
// artifacts this party has gathered or produced so far.
type SessionRecord struct {
	GroupID       ARID
	SessionID     ARID
	Coordinator   XID
	MinSigners    int
	Participants  []SigningParticipant
	TargetEnvelope []byte
	TargetDigest  [32]byte
	Status        SessionStatus

	// Populated as the session progresses; not all fields apply to every role.
	Nonces        SigningNonces                  `json:",omitempty"`
	Commitments   map[Identifier]SigningCommitment `json:",omitempty"`
	Share         SignatureShare                 `json:",omitempty"`
	Shares        map[Identifier]SignatureShare   `json:",omitempty"`
	Signature     Signature                       `json:",omitempty"`
}

// ParticipantByXID returns this session's routing record for xid, if present.
func (s SessionRecord) ParticipantByXID(xid XID) (SigningParticipant, bool) {
	for _, p := range s.Participants {
		if p.XID == xid {
			return p, true
		}
	}
	return SigningParticipant{}, false
}
