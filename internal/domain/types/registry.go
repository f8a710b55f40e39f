package types

// PendingRequest is one participant's routing record for a group or
// session phase currently awaiting a reply: where we posted to them, and
// where we are polling for their response (spec.md §3/§4.4).
type PendingRequest struct {
	Participant      XID
	SendToARID       ARID
	CollectFromARID  ARID
	// Phase names the GSTP function this pending request is waiting on a
	// response to, e.g. "dkgInviteResponse", so a rehydrated process can
	// tell which transition is still outstanding.
	Phase string
}

// Registry is the durable, owner-scoped identity and routing store
// (spec.md §3): exactly one owner, a set of known participants keyed by
// XID, a set of group records keyed by group ARID, the ARID this owner is
// currently listening on, and the pending requests awaiting reply.
type Registry struct {
	Version int `json:"version"`

	Owner        *PrivateXIDDocument
	Participants map[XID]XIDDocument
	Groups       map[ARID]GroupRecord

	ListeningAtARID *ARID

	// PendingRequests is keyed by group ARID (DKG phases) or session ARID
	// (signing phases); each entry is that phase's per-participant routing.
	PendingRequests map[ARID][]PendingRequest
}

// RegistryVersion is the current on-disk schema version; loading a
// higher version is refused (spec.md §6).
const RegistryVersion = 1

// NewRegistry returns an empty registry at the current schema version.
func NewRegistry() *Registry {
	return &Registry{
		Version:         RegistryVersion,
		Participants:    map[XID]XIDDocument{},
		Groups:          map[ARID]GroupRecord{},
		PendingRequests: map[ARID][]PendingRequest{},
	}
}
