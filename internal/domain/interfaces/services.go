package interfaces

import (
	"context"

	domaintypes "xfrost/internal/domain/types"
)

// RegistryService implements the identity/routing operations of spec.md
// §4.1 on top of a RegistryStore.
type RegistryService interface {
	SetOwner(doc domaintypes.PrivateXIDDocument) error
	AddParticipant(doc domaintypes.XIDDocument, petName domaintypes.PetName) error
	ListParticipants() ([]domaintypes.XIDDocument, error)

	UpsertGroup(g domaintypes.GroupRecord) error
	Group(id domaintypes.ARID) (domaintypes.GroupRecord, bool, error)

	SetListeningAt(arid domaintypes.ARID) error
	ClearListeningAt() error
	ListeningAt() (domaintypes.ARID, bool, error)

	SetPendingRequests(phase domaintypes.ARID, reqs []domaintypes.PendingRequest) error
	PendingRequests(phase domaintypes.ARID) ([]domaintypes.PendingRequest, error)
	ClearPendingRequests(phase domaintypes.ARID) error

	Owner() (domaintypes.PrivateXIDDocument, error)
}

// EnvelopeCodec encodes and decodes the single GSTP message format
// (spec.md §4.3).
type EnvelopeCodec interface {
	EncodeRequest(
		fn domaintypes.Function,
		params map[string]any,
		sender domaintypes.PrivateXIDDocument,
		recipients []domaintypes.XIDDocument,
		requestARID domaintypes.ARID,
		validUntil int64,
		continuation *domaintypes.PeerContinuation,
	) ([]byte, error)

	// EncodeMulticastRequest is EncodeRequest plus a per-recipient leaf: a
	// second field set sealed individually to each recipient and merged
	// back into its Params on decode, for phases whose body (a target
	// envelope, a participant list) is identical across recipients but
	// whose routing fields (a response ARID, an identifier) are not
	// (spec.md §4.3's multicast envelope).
	EncodeMulticastRequest(
		fn domaintypes.Function,
		params map[string]any,
		leafParams map[domaintypes.XID]map[string]any,
		sender domaintypes.PrivateXIDDocument,
		recipients []domaintypes.XIDDocument,
		requestARID domaintypes.ARID,
		validUntil int64,
		continuation *domaintypes.PeerContinuation,
	) ([]byte, error)

	DecodeRequest(envelope []byte, me domaintypes.PrivateXIDDocument, knownSenders map[domaintypes.XID]domaintypes.XIDDocument) (domaintypes.Request, error)

	EncodeResponse(
		requestARID domaintypes.ARID,
		result map[string]any,
		errMsg string,
		sender domaintypes.PrivateXIDDocument,
		recipient domaintypes.XIDDocument,
		continuation *domaintypes.PeerContinuation,
	) ([]byte, error)

	DecodeResponse(envelope []byte, me domaintypes.PrivateXIDDocument, knownSenders map[domaintypes.XID]domaintypes.XIDDocument) (domaintypes.Response, error)
}

// ParticipantRequest names one participant's collection job for the
// Parallel Collector (spec.md §4.7).
type ParticipantRequest struct {
	Participant domaintypes.XID
	CollectARID domaintypes.ARID
	DisplayName string
}

// DispatchMessage names one outbound post for the parallel dispatcher.
type DispatchMessage struct {
	Recipient domaintypes.XID
	SendARID  domaintypes.ARID
	Envelope  []byte
}

// CollectionOutcome is the per-participant result of a parallel or
// sequential fetch.
type CollectionOutcome struct {
	Participant domaintypes.XID
	Envelope    []byte
	Err         error
	Rejected    bool
	TimedOut    bool
}

// CollectionResult is the aggregate of a collect() call (spec.md §4.7).
type CollectionResult struct {
	Successes []CollectionOutcome
	Rejected  []CollectionOutcome
	Errors    []CollectionOutcome
	TimedOut  []CollectionOutcome
	Cancelled bool
}

// ValidateFunc inspects a freshly-collected envelope and decides whether it
// counts as success, rejection, or error.
type ValidateFunc func(participant domaintypes.XID, envelope []byte) (rejected bool, err error)

// Collector fans concurrent or sequential fetches out over a KvStore.
type Collector interface {
	Collect(ctx context.Context, kv KvStore, reqs []ParticipantRequest, parallel bool, validate ValidateFunc) CollectionResult
	Dispatch(ctx context.Context, kv KvStore, msgs []DispatchMessage, parallel bool) map[domaintypes.XID]error
}
