package signing

import (
	"time"

	domain "xfrost/internal/domain"
)

// DefaultTimeout bounds a coordinator's wait for one round of signer
// responses (spec.md §5).
const DefaultTimeout = 120 * time.Second

// Engine drives the signing state machine for one local party against its
// collaborators, mirroring internal/protocol/dkg's Engine shape.
type Engine struct {
	Me        domain.PrivateXIDDocument
	Codec     domain.EnvelopeCodec
	Suite     domain.FrostSuite
	KV        domain.KvStore
	Collector domain.Collector
	Registry  domain.RegistryService
	State     domain.SigningStateStore
	// GroupState gives access to the group's durable KeyPackage and
	// PublicKeyPackage, produced by the dkg package and reused here
	// unchanged across every signing session the group runs.
	GroupState domain.GroupStateStore
	Parallel   bool
	Timeout    time.Duration
}

func (e *Engine) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return DefaultTimeout
}

func (e *Engine) knownSenders() (map[domain.XID]domain.XIDDocument, error) {
	docs, err := e.Registry.ListParticipants()
	if err != nil {
		return nil, err
	}
	out := make(map[domain.XID]domain.XIDDocument, len(docs)+1)
	for _, d := range docs {
		out[d.XID] = d
	}
	out[e.Me.XID] = e.Me.XIDDocument
	return out, nil
}

func findXIDDocument(docs []domain.XIDDocument, xid domain.XID) (domain.XIDDocument, bool) {
	for _, d := range docs {
		if d.XID == xid {
			return d, true
		}
	}
	return domain.XIDDocument{}, false
}
