package dkg

import (
	"time"

	domain "xfrost/internal/domain"
)

// DefaultTimeout bounds a coordinator's wait for one round of participant
// responses (spec.md §5's "per-fetch deadlines default to 600 seconds").
const DefaultTimeout = 600 * time.Second

// Engine drives the DKG state machine for one local party (coordinator or
// participant) against its collaborators. A single xfrost process acts as
// exactly one of those roles per invocation, rehydrating all state from
// disk on every run (spec.md §9).
type Engine struct {
	Me        domain.PrivateXIDDocument
	Codec     domain.EnvelopeCodec
	Suite     domain.FrostSuite
	KV        domain.KvStore
	Collector domain.Collector
	Registry  domain.RegistryService
	State     domain.GroupStateStore
	Parallel  bool
	Timeout   time.Duration
}

func (e *Engine) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return DefaultTimeout
}

// knownSenders resolves the set of XID documents DecodeRequest/DecodeResponse
// need to verify signatures: the owner plus every enrolled participant.
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
