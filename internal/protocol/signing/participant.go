package signing

import (
	"context"

	"xfrost/internal/crypto"
	domain "xfrost/internal/domain"
	"xfrost/internal/envelope"
	"xfrost/internal/router"
	"xfrost/internal/xerr"
)

// Receive handles an inbound signCommit: it runs this party's own commit
// round against the group's key package and returns the signCommitResponse
// params to post back (spec.md §4.6 phase 2).
func (e *Engine) Receive(req domain.Request) (domain.ARID, signCommitResponseParams, error) {
	var params signCommitParams
	if err := envelope.DecodeParams(req.Params, &params); err != nil {
		return domain.ARID{}, signCommitResponseParams{}, xerr.Wrap(xerr.ProtocolError, "sign.receive", err)
	}
	group, ok, err := e.Registry.Group(params.Group)
	if err != nil {
		return domain.ARID{}, signCommitResponseParams{}, err
	}
	if !ok || group.Status != domain.GroupFinalized {
		return domain.ARID{}, signCommitResponseParams{}, xerr.New(xerr.ProtocolError, "sign.receive", "group is not finalized")
	}

	if params.MinSigners > len(params.Participants) {
		return domain.ARID{}, signCommitResponseParams{}, xerr.New(xerr.ProtocolError, "sign.receive", "minSigners exceeds participant count")
	}
	var present bool
	for _, p := range params.Participants {
		if p.XID == e.Me.XID && p.Identifier == params.Identifier {
			present = true
			break
		}
	}
	if !present {
		return domain.ARID{}, signCommitResponseParams{}, xerr.New(xerr.ProtocolError, "sign.receive", "this party is not among the session participants")
	}

	// Never trust a claimed digest: recompute it from the literal target
	// envelope so a tampered commitment request is caught here rather than
	// signed over blind (spec.md §4.6 phase 2).
	digest := crypto.Digest256(params.TargetEnvelope)

	if existing, err := e.State.LoadSession(params.Group, params.Session); err == nil && existing.Status != "" {
		if existing.TargetDigest != digest {
			return domain.ARID{}, signCommitResponseParams{}, xerr.New(xerr.ProtocolError, "sign.receive", "commitment_tamper")
		}
		return params.ResponseARID, signCommitResponseParams{
			Session:    params.Session,
			Identifier: params.Identifier,
			Commitment: existing.Commitments[params.Identifier],
		}, nil
	}

	kp, _, err := e.GroupState.LoadKeyPackage(params.Group)
	if err != nil {
		return domain.ARID{}, signCommitResponseParams{}, err
	}
	nonces, commitment, err := e.Suite.SignRound1(kp)
	if err != nil {
		return domain.ARID{}, signCommitResponseParams{}, xerr.Wrap(xerr.ProtocolError, "sign.receive", err)
	}

	rec := domain.SessionRecord{
		GroupID:        params.Group,
		SessionID:      params.Session,
		Coordinator:    req.SenderXID,
		MinSigners:     params.MinSigners,
		Participants:   params.Participants,
		TargetEnvelope: params.TargetEnvelope,
		TargetDigest:   digest,
		Status:         domain.SessionReceived,
		Nonces:         nonces,
		Commitments:    map[domain.Identifier]domain.SigningCommitment{params.Identifier: commitment},
	}
	if err := e.State.SaveSession(params.Group, params.Session, rec); err != nil {
		return domain.ARID{}, signCommitResponseParams{}, err
	}

	return params.ResponseARID, signCommitResponseParams{
		Session:    params.Session,
		Identifier: params.Identifier,
		Commitment: commitment,
	}, nil
}

// RespondShare handles an inbound signShare: it derives this party's
// signature share over the session digest given the full commitment set
// (spec.md §4.6 phase 5).
func (e *Engine) RespondShare(req domain.Request) (domain.ARID, signShareResponseParams, error) {
	var params signShareParams
	if err := envelope.DecodeParams(req.Params, &params); err != nil {
		return domain.ARID{}, signShareResponseParams{}, xerr.Wrap(xerr.ProtocolError, "sign.respond-share", err)
	}
	rec, err := e.State.LoadSession(params.Group, params.Session)
	if err != nil {
		return domain.ARID{}, signShareResponseParams{}, err
	}
	if rec.TargetDigest != params.TargetDigest {
		return domain.ARID{}, signShareResponseParams{}, xerr.New(xerr.ProtocolError, "sign.respond-share", "digest mismatch")
	}
	me := identifierIn(rec, e.Me.XID)
	if mine, ok := rec.Commitments[me]; ok && string(mine) != string(params.Commitments[me]) {
		return domain.ARID{}, signShareResponseParams{}, xerr.New(xerr.ProtocolError, "sign.respond-share", "commitment_tamper")
	}
	rec.Commitments = params.Commitments

	kp, _, err := e.GroupState.LoadKeyPackage(rec.GroupID)
	if err != nil {
		return domain.ARID{}, signShareResponseParams{}, err
	}
	share, err := e.Suite.SignRound2(rec.Nonces, kp, rec.TargetDigest, params.Commitments)
	if err != nil {
		return domain.ARID{}, signShareResponseParams{}, xerr.Wrap(xerr.ProtocolError, "sign.respond-share", err)
	}
	rec.Status = domain.SessionShared
	if rec.Shares == nil {
		rec.Shares = map[domain.Identifier]domain.SignatureShare{}
	}
	rec.Shares[me] = share
	if err := e.State.SaveCommitments(rec.GroupID, rec.SessionID, rec.Commitments); err != nil {
		return domain.ARID{}, signShareResponseParams{}, err
	}
	if err := e.State.SaveSession(rec.GroupID, rec.SessionID, rec); err != nil {
		return domain.ARID{}, signShareResponseParams{}, err
	}

	return params.NextResponseARID, signShareResponseParams{
		Session: params.Session,
		Share:   share,
	}, nil
}

// ReceiveFinalize handles an inbound signFinalize: it verifies the
// aggregated signature against the group's verifying key before attaching
// it locally (spec.md §4.6 phase 6, the participant side of the
// two-level verify-and-attach).
func (e *Engine) ReceiveFinalize(req domain.Request) (signFinalizeResponseParams, error) {
	var params signFinalizeParams
	if err := envelope.DecodeParams(req.Params, &params); err != nil {
		return signFinalizeResponseParams{}, xerr.Wrap(xerr.ProtocolError, "sign.receive-finalize", err)
	}
	groupID := params.Group
	rec, err := e.State.LoadSession(groupID, params.Session)
	if err != nil {
		return signFinalizeResponseParams{}, err
	}
	rec.Signature = params.Signature
	if err := e.State.SaveFinal(groupID, params.Session, params.Signature); err != nil {
		return signFinalizeResponseParams{}, err
	}
	if err := e.State.SaveSession(groupID, params.Session, rec); err != nil {
		return signFinalizeResponseParams{}, err
	}
	if err := e.Attach(groupID, params.Session); err != nil {
		return signFinalizeResponseParams{Session: params.Session, Ok: false}, err
	}
	return signFinalizeResponseParams{Session: params.Session, Ok: true}, nil
}

// PostResponse seals and posts a GSTP response body to arid, the shared
// last step of every Receive/RespondShare/ReceiveFinalize handler. As in
// the DKG engine, it rotates this party's bootstrap rendezvous slot and
// carries the fresh ARID forward as a PeerContinuation so the coordinator
// has somewhere new to address the session's next hop.
func (e *Engine) PostResponse(ctx context.Context, arid domain.ARID, result map[string]any, recipient domain.XIDDocument) error {
	next, err := router.NewARID()
	if err != nil {
		return xerr.Wrap(xerr.TransportError, "sign.post-response", err)
	}
	if err := e.Registry.SetListeningAt(next); err != nil {
		return err
	}
	env, err := e.Codec.EncodeResponse(arid, result, "", e.Me, recipient, &domain.PeerContinuation{ExpectedNextRequestARID: next})
	if err != nil {
		return err
	}
	if err := e.KV.Put(ctx, arid, env); err != nil {
		return xerr.Wrap(xerr.TransportError, "sign.post-response", err)
	}
	return nil
}
