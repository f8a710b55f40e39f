package dkg

import (
	"context"

	domain "xfrost/internal/domain"
	"xfrost/internal/envelope"
	"xfrost/internal/router"
	"xfrost/internal/xerr"
)

// Accept handles an inbound dkgGroupInvite: it enrolls the group locally,
// runs its own Part1, and returns the dkgInviteResponse params to post to
// the coordinator's collection slot (spec.md §4.5 phase 2, accept branch).
// Callers that want to reject instead never call Accept; they post a
// response with Error set via their own transport glue.
func (e *Engine) Accept(req domain.Request) (domain.ARID, inviteResponseParams, error) {
	var params inviteParams
	if err := envelope.DecodeParams(req.Params, &params); err != nil {
		return domain.ARID{}, inviteResponseParams{}, xerr.Wrap(xerr.ProtocolError, "dkg.accept", err)
	}

	me := lookupByXID(params.Participants, e.Me.XID)
	if me.Identifier == 0 {
		return domain.ARID{}, inviteResponseParams{}, xerr.New(xerr.ProtocolError, "dkg.accept", "this party is not among the invited participants")
	}
	coordinator := lookupCoordinator(params.Participants, req.SenderXID)
	if coordinator.XID.IsZero() {
		return domain.ARID{}, inviteResponseParams{}, xerr.New(xerr.ProtocolError, "dkg.accept", "inviter is not a listed participant")
	}

	if existing, ok, err := e.Registry.Group(params.Session); err == nil && ok {
		if existing.Status != domain.GroupInvited {
			return domain.ARID{}, inviteResponseParams{}, xerr.New(xerr.ProtocolError, "dkg.accept", "group already past invite phase")
		}
	}

	secret, pkg, err := e.Suite.Part1(me.Identifier, len(params.Participants), params.MinSigners)
	if err != nil {
		return domain.ARID{}, inviteResponseParams{}, xerr.Wrap(xerr.ProtocolError, "dkg.accept", err)
	}
	if err := e.State.SaveRound1Secret(params.Session, secret); err != nil {
		return domain.ARID{}, inviteResponseParams{}, err
	}
	if err := e.State.SaveRound1Package(params.Session, pkg); err != nil {
		return domain.ARID{}, inviteResponseParams{}, err
	}

	record := domain.GroupRecord{
		GroupID:      params.Session,
		Charter:      params.Charter,
		MinSigners:   params.MinSigners,
		Coordinator:  req.SenderXID,
		Participants: params.Participants,
		Status:       domain.GroupAccepted,
	}
	if err := e.Registry.UpsertGroup(record); err != nil {
		return domain.ARID{}, inviteResponseParams{}, err
	}

	return params.ResponseARID, inviteResponseParams{
		Session:       params.Session,
		Identifier:    me.Identifier,
		Round1Package: pkg,
	}, nil
}

// Reject marks a group rejected without running any cryptography. A party
// that already accepted may not later reject (spec.md §4.5 tie-breaks). It
// returns the coordinator's collection ARID so the caller can post the
// rejection there.
func (e *Engine) Reject(req domain.Request) (domain.ARID, error) {
	var params inviteParams
	if err := envelope.DecodeParams(req.Params, &params); err != nil {
		return domain.ARID{}, xerr.Wrap(xerr.ProtocolError, "dkg.reject", err)
	}
	if existing, ok, err := e.Registry.Group(params.Session); err == nil && ok && existing.Status == domain.GroupAccepted {
		return domain.ARID{}, xerr.New(xerr.ProtocolError, "dkg.reject", "cannot reject a group already accepted")
	}
	if err := e.Registry.UpsertGroup(domain.GroupRecord{
		GroupID:      params.Session,
		Charter:      params.Charter,
		MinSigners:   params.MinSigners,
		Coordinator:  req.SenderXID,
		Participants: params.Participants,
		Status:       domain.GroupRejected,
	}); err != nil {
		return domain.ARID{}, err
	}
	return params.ResponseARID, nil
}

// RespondRound2 handles an inbound dkgRound2: it runs Part2 against the
// full round-1 package set and returns the per-recipient shares this
// participant must send back (spec.md §4.5 phase 4).
func (e *Engine) RespondRound2(req domain.Request) (domain.ARID, round2ResponseParams, error) {
	var params round2Params
	if err := envelope.DecodeParams(req.Params, &params); err != nil {
		return domain.ARID{}, round2ResponseParams{}, xerr.Wrap(xerr.ProtocolError, "dkg.respond-round2", err)
	}
	record, ok, err := e.Registry.Group(params.Session)
	if err != nil {
		return domain.ARID{}, round2ResponseParams{}, err
	}
	if !ok {
		return domain.ARID{}, round2ResponseParams{}, xerr.New(xerr.StateCorruption, "dkg.respond-round2", "unknown group")
	}
	if record.IdentifierOf(e.Me.XID) == 0 {
		return domain.ARID{}, round2ResponseParams{}, xerr.New(xerr.ProtocolError, "dkg.respond-round2", "this party is not a participant")
	}

	if err := e.State.SaveCollectedRound1(params.Session, params.Round1Packages); err != nil {
		return domain.ARID{}, round2ResponseParams{}, err
	}
	secret, err := e.State.LoadRound1Secret(params.Session)
	if err != nil {
		return domain.ARID{}, round2ResponseParams{}, err
	}
	round2Secret, toSend, err := e.Suite.Part2(secret, params.Round1Packages)
	if err != nil {
		return domain.ARID{}, round2ResponseParams{}, xerr.Wrap(xerr.ProtocolError, "dkg.respond-round2", err)
	}
	if err := e.State.SaveRound2Secret(params.Session, round2Secret); err != nil {
		return domain.ARID{}, round2ResponseParams{}, err
	}

	record.Status = domain.GroupRound1Done
	if err := e.Registry.UpsertGroup(record); err != nil {
		return domain.ARID{}, round2ResponseParams{}, err
	}

	return params.NextResponseARID, round2ResponseParams{
		Session:        params.Session,
		Round2Packages: toSend,
	}, nil
}

// RespondFinalize handles an inbound dkgFinalize: it runs Part3 with the
// round-2 shares addressed to this participant and returns its public key
// package for the coordinator's equality check (spec.md §4.5 phase 6).
func (e *Engine) RespondFinalize(req domain.Request) (domain.ARID, finalizeResponseParams, error) {
	var params finalizeParams
	if err := envelope.DecodeParams(req.Params, &params); err != nil {
		return domain.ARID{}, finalizeResponseParams{}, xerr.Wrap(xerr.ProtocolError, "dkg.respond-finalize", err)
	}
	round1, err := e.State.LoadCollectedRound1(params.Session)
	if err != nil {
		return domain.ARID{}, finalizeResponseParams{}, err
	}
	round2Secret, err := e.State.LoadRound2Secret(params.Session)
	if err != nil {
		return domain.ARID{}, finalizeResponseParams{}, err
	}
	kp, pkp, err := e.Suite.Part3(round2Secret, round1, params.Round2Packages)
	if err != nil {
		return domain.ARID{}, finalizeResponseParams{}, xerr.Wrap(xerr.ProtocolError, "dkg.respond-finalize", err)
	}
	if err := e.State.SaveKeyPackage(params.Session, kp, pkp); err != nil {
		return domain.ARID{}, finalizeResponseParams{}, err
	}

	record, ok, err := e.Registry.Group(params.Session)
	if err == nil && ok {
		vk, vkErr := e.Suite.VerifyingKeyOf(pkp)
		if vkErr == nil {
			record.VerifyingKey = vk
		}
		record.Status = domain.GroupFinalized
		_ = e.Registry.UpsertGroup(record)
	}

	return params.NextResponseARID, finalizeResponseParams{
		Session:          params.Session,
		PublicKeyPackage: pkp,
	}, nil
}

// PostResponse seals and posts a GSTP response body to arid, the common
// last step of every Accept/RespondRound2/RespondFinalize handler
// (spec.md §4.4's single-write response slot). It also rotates this
// party's bootstrap rendezvous slot and hands the fresh ARID to the
// recipient as a PeerContinuation, so the recipient's next request in
// this relationship has somewhere new to address (ListenAt is only ever
// good for one first contact).
func (e *Engine) PostResponse(ctx context.Context, arid domain.ARID, result map[string]any, recipient domain.XIDDocument) error {
	next, err := router.NewARID()
	if err != nil {
		return xerr.Wrap(xerr.TransportError, "dkg.post-response", err)
	}
	if err := e.Registry.SetListeningAt(next); err != nil {
		return err
	}
	env, err := e.Codec.EncodeResponse(arid, result, "", e.Me, recipient, &domain.PeerContinuation{ExpectedNextRequestARID: next})
	if err != nil {
		return err
	}
	if err := e.KV.Put(ctx, arid, env); err != nil {
		return xerr.Wrap(xerr.TransportError, "dkg.post-response", err)
	}
	return nil
}

// PostRejection posts an error response in place of a normal result,
// without running Part1 (spec.md §4.5 phase 2, reject branch). A rejected
// relationship has no further hops to chain, so no continuation is issued.
func (e *Engine) PostRejection(ctx context.Context, arid domain.ARID, recipient domain.XIDDocument, reason string) error {
	env, err := e.Codec.EncodeResponse(arid, nil, reason, e.Me, recipient, nil)
	if err != nil {
		return err
	}
	if err := e.KV.Put(ctx, arid, env); err != nil {
		return xerr.Wrap(xerr.TransportError, "dkg.post-rejection", err)
	}
	return nil
}

func lookupCoordinator(all []domain.GroupParticipant, coordinatorXID domain.XID) domain.GroupParticipant {
	return lookupByXID(all, coordinatorXID)
}
