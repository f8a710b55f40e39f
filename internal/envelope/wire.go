package envelope

import (
	"github.com/fxamacker/cbor/v2"

	"xfrost/internal/crypto"
	domain "xfrost/internal/domain"
)

// wireRequestBody is the canonical, signed payload of a GSTP request: the
// bytes SignBody/VerifyBody operate on, and the plaintext every recipient
// recovers after opening their sealed copy.
type wireRequestBody struct {
	Function         domain.Function
	Params           map[string]any `cbor:",omitempty"`
	SenderXID        domain.XID
	RequestARID      domain.ARID
	ValidUntil       int64
	Date             int64
	PeerContinuation *domain.PeerContinuation `cbor:",omitempty"`
	Recipients       []domain.XID             `cbor:",omitempty"`

	// Leaves carries the per-recipient routing fields of a multicast
	// request (spec.md §4.3): Params holds the data every recipient shares
	// (a target envelope, a participant list), while each entry here is a
	// second, inner seal to that one recipient's key, so a recipient who
	// opens its own outer copy still can't read another's leaf.
	Leaves map[domain.XID]crypto.SealedMessage `cbor:",omitempty"`
}

type signedPayload struct {
	Body      []byte
	Signature []byte
}

// wireEnvelope is the transport-level structure: one sealed copy of the
// signed payload per intended recipient, keyed by that recipient's XID so
// a holder of one private key can find and open only their own copy.
type wireEnvelope struct {
	Sealed map[domain.XID]crypto.SealedMessage
}

type wireResponseBody struct {
	RequestARID      domain.ARID
	Result           map[string]any `cbor:",omitempty"`
	Error            string         `cbor:",omitempty"`
	SenderXID        domain.XID
	PeerContinuation *domain.PeerContinuation `cbor:",omitempty"`
}

func marshalCBOR(v any) ([]byte, error) { return cbor.Marshal(v) }

func unmarshalCBOR(data []byte, v any) error { return cbor.Unmarshal(data, v) }
