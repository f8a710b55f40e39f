package envelope

import (
	"fmt"
	"time"

	"xfrost/internal/crypto"
	domain "xfrost/internal/domain"
	"xfrost/internal/xerr"
)

// Codec is the CBOR/sealed-envelope implementation of domain.EnvelopeCodec.
// It carries no state: every call is a pure function of its arguments.
type Codec struct{}

var _ domain.EnvelopeCodec = Codec{}

// New returns a ready-to-use Codec.
func New() Codec { return Codec{} }

// EncodeRequest builds a signed, per-recipient sealed GSTP request envelope
// carrying the same params to every recipient (spec.md §4.3).
func (c Codec) EncodeRequest(
	fn domain.Function,
	params map[string]any,
	sender domain.PrivateXIDDocument,
	recipients []domain.XIDDocument,
	requestARID domain.ARID,
	validUntil int64,
	continuation *domain.PeerContinuation,
) ([]byte, error) {
	return c.EncodeMulticastRequest(fn, params, nil, sender, recipients, requestARID, validUntil, continuation)
}

// EncodeMulticastRequest builds one signed GSTP request envelope addressed
// to every recipient at once, the way spec.md §4.3/§9 describe for a phase
// whose body is mostly identical across recipients (a shared target
// envelope, a shared participant list): params is the plaintext every
// recipient's copy carries, while leafParams[xid] is sealed a second time
// to that one recipient's key and merged back into its Params on decode, so
// a per-recipient routing field (a response ARID, an identifier) stays
// hidden from every other recipient even though they all share one
// envelope and one signature.
func (Codec) EncodeMulticastRequest(
	fn domain.Function,
	params map[string]any,
	leafParams map[domain.XID]map[string]any,
	sender domain.PrivateXIDDocument,
	recipients []domain.XIDDocument,
	requestARID domain.ARID,
	validUntil int64,
	continuation *domain.PeerContinuation,
) ([]byte, error) {
	if len(recipients) == 0 {
		return nil, xerr.New(xerr.ProtocolError, "EncodeMulticastRequest", "at least one recipient is required")
	}
	recipientXIDs := make([]domain.XID, len(recipients))
	for i, r := range recipients {
		recipientXIDs[i] = r.XID
	}

	var leaves map[domain.XID]crypto.SealedMessage
	if len(leafParams) > 0 {
		leaves = make(map[domain.XID]crypto.SealedMessage, len(leafParams))
		for _, r := range recipients {
			lp, ok := leafParams[r.XID]
			if !ok {
				continue
			}
			leafBytes, err := marshalCBOR(lp)
			if err != nil {
				return nil, xerr.Wrap(xerr.ProtocolError, "EncodeMulticastRequest", err)
			}
			sealed, err := crypto.SealTo(r.Keys.EncapsulationKey, leafBytes)
			if err != nil {
				return nil, xerr.Wrap(xerr.ProtocolError, "EncodeMulticastRequest", err)
			}
			leaves[r.XID] = sealed
		}
	}

	body := wireRequestBody{
		Function:         fn,
		Params:           params,
		SenderXID:        sender.XID,
		RequestARID:      requestARID,
		ValidUntil:       validUntil,
		Date:             time.Now().Unix(),
		PeerContinuation: continuation,
		Recipients:       recipientXIDs,
		Leaves:           leaves,
	}
	bodyBytes, err := marshalCBOR(body)
	if err != nil {
		return nil, xerr.Wrap(xerr.ProtocolError, "EncodeMulticastRequest", err)
	}
	sig := crypto.SignBody(sender.SigningPrivateKey, bodyBytes)
	payload := signedPayload{Body: bodyBytes, Signature: sig}
	payloadBytes, err := marshalCBOR(payload)
	if err != nil {
		return nil, xerr.Wrap(xerr.ProtocolError, "EncodeMulticastRequest", err)
	}

	env := wireEnvelope{Sealed: make(map[domain.XID]crypto.SealedMessage, len(recipients))}
	for _, r := range recipients {
		sealed, err := crypto.SealTo(r.Keys.EncapsulationKey, payloadBytes)
		if err != nil {
			return nil, xerr.Wrap(xerr.ProtocolError, "EncodeMulticastRequest", err)
		}
		env.Sealed[r.XID] = sealed
	}
	out, err := marshalCBOR(env)
	if err != nil {
		return nil, xerr.Wrap(xerr.ProtocolError, "EncodeMulticastRequest", err)
	}
	return out, nil
}

// DecodeRequest opens me's sealed copy of envelope, verifies the sender's
// signature against a known public XID document, and returns the
// authenticated request.
func (Codec) DecodeRequest(envelope []byte, me domain.PrivateXIDDocument, knownSenders map[domain.XID]domain.XIDDocument) (domain.Request, error) {
	var env wireEnvelope
	if err := unmarshalCBOR(envelope, &env); err != nil {
		return domain.Request{}, xerr.Wrap(xerr.ProtocolError, "DecodeRequest", err)
	}
	sealed, ok := env.Sealed[me.XID]
	if !ok {
		return domain.Request{}, xerr.New(xerr.AuthenticationFailed, "DecodeRequest", "envelope has no copy sealed for this recipient")
	}
	payloadBytes, err := crypto.OpenSealed(me.EncapsulationPrivateKey, sealed)
	if err != nil {
		return domain.Request{}, xerr.Wrap(xerr.DecryptionFailed, "DecodeRequest", err)
	}
	var payload signedPayload
	if err := unmarshalCBOR(payloadBytes, &payload); err != nil {
		return domain.Request{}, xerr.Wrap(xerr.ProtocolError, "DecodeRequest", err)
	}
	var body wireRequestBody
	if err := unmarshalCBOR(payload.Body, &body); err != nil {
		return domain.Request{}, xerr.Wrap(xerr.ProtocolError, "DecodeRequest", err)
	}
	senderDoc, ok := knownSenders[body.SenderXID]
	if !ok {
		return domain.Request{}, xerr.New(xerr.AuthenticationFailed, "DecodeRequest", fmt.Sprintf("unknown sender %s", body.SenderXID))
	}
	if err := crypto.VerifyBody(senderDoc.Keys.SigningKey, payload.Body, payload.Signature); err != nil {
		return domain.Request{}, xerr.Wrap(xerr.AuthenticationFailed, "DecodeRequest", err)
	}

	if leaf, ok := body.Leaves[me.XID]; ok {
		leafBytes, err := crypto.OpenSealed(me.EncapsulationPrivateKey, leaf)
		if err != nil {
			return domain.Request{}, xerr.Wrap(xerr.DecryptionFailed, "DecodeRequest", err)
		}
		var leafParams map[string]any
		if err := unmarshalCBOR(leafBytes, &leafParams); err != nil {
			return domain.Request{}, xerr.Wrap(xerr.ProtocolError, "DecodeRequest", err)
		}
		if body.Params == nil {
			body.Params = make(map[string]any, len(leafParams))
		}
		for k, v := range leafParams {
			body.Params[k] = v
		}
	}

	return domain.Request{
		Function:         body.Function,
		Params:           body.Params,
		SenderXID:        body.SenderXID,
		RequestARID:      body.RequestARID,
		ValidUntil:       time.Unix(body.ValidUntil, 0).UTC(),
		Date:             time.Unix(body.Date, 0).UTC(),
		PeerContinuation: body.PeerContinuation,
		Recipients:       body.Recipients,
	}, nil
}

// EncodeResponse builds a signed, sealed GSTP response envelope addressed
// to a single recipient (spec.md §4.3).
func (Codec) EncodeResponse(
	requestARID domain.ARID,
	result map[string]any,
	errMsg string,
	sender domain.PrivateXIDDocument,
	recipient domain.XIDDocument,
	continuation *domain.PeerContinuation,
) ([]byte, error) {
	body := wireResponseBody{
		RequestARID:      requestARID,
		Result:           result,
		Error:            errMsg,
		SenderXID:        sender.XID,
		PeerContinuation: continuation,
	}
	bodyBytes, err := marshalCBOR(body)
	if err != nil {
		return nil, xerr.Wrap(xerr.ProtocolError, "EncodeResponse", err)
	}
	sig := crypto.SignBody(sender.SigningPrivateKey, bodyBytes)
	payload := signedPayload{Body: bodyBytes, Signature: sig}
	payloadBytes, err := marshalCBOR(payload)
	if err != nil {
		return nil, xerr.Wrap(xerr.ProtocolError, "EncodeResponse", err)
	}
	sealed, err := crypto.SealTo(recipient.Keys.EncapsulationKey, payloadBytes)
	if err != nil {
		return nil, xerr.Wrap(xerr.ProtocolError, "EncodeResponse", err)
	}
	env := wireEnvelope{Sealed: map[domain.XID]crypto.SealedMessage{recipient.XID: sealed}}
	out, err := marshalCBOR(env)
	if err != nil {
		return nil, xerr.Wrap(xerr.ProtocolError, "EncodeResponse", err)
	}
	return out, nil
}

// DecodeResponse opens me's sealed copy of envelope and verifies the
// sender's signature against a known public XID document.
func (Codec) DecodeResponse(envelope []byte, me domain.PrivateXIDDocument, knownSenders map[domain.XID]domain.XIDDocument) (domain.Response, error) {
	var env wireEnvelope
	if err := unmarshalCBOR(envelope, &env); err != nil {
		return domain.Response{}, xerr.Wrap(xerr.ProtocolError, "DecodeResponse", err)
	}
	sealed, ok := env.Sealed[me.XID]
	if !ok {
		return domain.Response{}, xerr.New(xerr.AuthenticationFailed, "DecodeResponse", "envelope has no copy sealed for this recipient")
	}
	payloadBytes, err := crypto.OpenSealed(me.EncapsulationPrivateKey, sealed)
	if err != nil {
		return domain.Response{}, xerr.Wrap(xerr.DecryptionFailed, "DecodeResponse", err)
	}
	var payload signedPayload
	if err := unmarshalCBOR(payloadBytes, &payload); err != nil {
		return domain.Response{}, xerr.Wrap(xerr.ProtocolError, "DecodeResponse", err)
	}
	var body wireResponseBody
	if err := unmarshalCBOR(payload.Body, &body); err != nil {
		return domain.Response{}, xerr.Wrap(xerr.ProtocolError, "DecodeResponse", err)
	}
	senderDoc, ok := knownSenders[body.SenderXID]
	if !ok {
		return domain.Response{}, xerr.New(xerr.AuthenticationFailed, "DecodeResponse", fmt.Sprintf("unknown sender %s", body.SenderXID))
	}
	if err := crypto.VerifyBody(senderDoc.Keys.SigningKey, payload.Body, payload.Signature); err != nil {
		return domain.Response{}, xerr.Wrap(xerr.AuthenticationFailed, "DecodeResponse", err)
	}

	return domain.Response{
		RequestARID:      body.RequestARID,
		Result:           body.Result,
		Error:            body.Error,
		SenderXID:        body.SenderXID,
		PeerContinuation: body.PeerContinuation,
	}, nil
}
