package signing

import (
	"context"
	"fmt"
	"time"

	"xfrost/internal/crypto"
	domain "xfrost/internal/domain"
	"xfrost/internal/envelope"
	"xfrost/internal/router"
	"xfrost/internal/xerr"
)

// Start opens a new signing session over message: it derives the target
// digest, runs the coordinator's own commit round locally, and dispatches
// signCommit to every other group participant (spec.md §4.6 phase 1).
func (e *Engine) Start(ctx context.Context, groupID domain.ARID, message []byte) (domain.ARID, error) {
	record, ok, err := e.Registry.Group(groupID)
	if err != nil {
		return domain.ARID{}, err
	}
	if !ok || record.Status != domain.GroupFinalized {
		return domain.ARID{}, xerr.New(xerr.ProtocolError, "sign.start", "group is not finalized")
	}
	me := record.IdentifierOf(e.Me.XID)
	if me == 0 {
		return domain.ARID{}, xerr.New(xerr.ProtocolError, "sign.start", "this party is not a participant of the group")
	}

	sessionID, err := router.NewARID()
	if err != nil {
		return domain.ARID{}, xerr.Wrap(xerr.TransportError, "sign.start", err)
	}
	digest := crypto.Digest256(message)

	kp, _, err := e.GroupState.LoadKeyPackage(groupID)
	if err != nil {
		return domain.ARID{}, err
	}
	nonces, commitment, err := e.Suite.SignRound1(kp)
	if err != nil {
		return domain.ARID{}, xerr.Wrap(xerr.ProtocolError, "sign.start", err)
	}

	participants := make([]domain.SigningParticipant, len(record.Participants))
	for i, p := range record.Participants {
		participants[i] = domain.SigningParticipant{XID: p.XID, Identifier: p.Identifier}
	}
	rec := domain.SessionRecord{
		GroupID:        groupID,
		SessionID:      sessionID,
		Coordinator:    e.Me.XID,
		MinSigners:     record.MinSigners,
		Participants:   participants,
		TargetEnvelope: message,
		TargetDigest:   digest,
		Status:         domain.SessionStarted,
		Nonces:         nonces,
		Commitments:    map[domain.Identifier]domain.SigningCommitment{me: commitment},
	}
	if err := e.State.SaveSession(groupID, sessionID, rec); err != nil {
		return domain.ARID{}, err
	}

	others := otherSigners(record.Participants, e.Me.XID)
	slots, err := router.NewHopSlotsFor(xidsOf(others))
	if err != nil {
		return domain.ARID{}, xerr.Wrap(xerr.TransportError, "sign.start", err)
	}
	knownDocs, err := e.Registry.ListParticipants()
	if err != nil {
		return domain.ARID{}, err
	}

	recipientDocs := make([]domain.XIDDocument, 0, len(others))
	leafParams := make(map[domain.XID]map[string]any, len(others))
	for _, p := range others {
		hop := slots[p.XID]
		recipientDoc, ok := findXIDDocument(knownDocs, p.XID)
		if !ok {
			return domain.ARID{}, xerr.New(xerr.StateCorruption, "sign.start", "unknown participant xid document")
		}
		if recipientDoc.ListenAt.IsZero() {
			return domain.ARID{}, xerr.New(xerr.ProtocolError, "sign.start", fmt.Sprintf("participant %s has no bootstrap listening arid on file", p.XID))
		}
		leaf, err := envelope.EncodeParams(signCommitLeafParams{Identifier: p.Identifier, ResponseARID: hop.CollectFrom})
		if err != nil {
			return domain.ARID{}, xerr.Wrap(xerr.ProtocolError, "sign.start", err)
		}
		recipientDocs = append(recipientDocs, recipientDoc)
		leafParams[p.XID] = leaf
	}

	msgs := make([]domain.DispatchMessage, 0, len(others))
	if len(recipientDocs) > 0 {
		shared, err := envelope.EncodeParams(signCommitSharedParams{
			Group:          groupID,
			Session:        sessionID,
			MinSigners:     record.MinSigners,
			TargetEnvelope: message,
			Participants:   participants,
		})
		if err != nil {
			return domain.ARID{}, xerr.Wrap(xerr.ProtocolError, "sign.start", err)
		}
		// One multicast envelope carries the shared target envelope and
		// participant set to every candidate signer; each recipient's own
		// identifier and response ARID travel as a separately-sealed leaf
		// (spec.md §4.3/§9).
		env, err := e.Codec.EncodeMulticastRequest(domain.FuncSignCommit, shared, leafParams, e.Me, recipientDocs, sessionID, time.Now().Add(e.timeout()).Unix(), nil)
		if err != nil {
			return domain.ARID{}, err
		}
		for _, doc := range recipientDocs {
			msgs = append(msgs, domain.DispatchMessage{Recipient: doc.XID, SendARID: doc.ListenAt, Envelope: env})
		}
	}
	pending := make([]domain.PendingRequest, 0, len(others))
	for _, p := range others {
		hop := slots[p.XID]
		recipientDoc, _ := findXIDDocument(knownDocs, p.XID)
		pending = append(pending, domain.PendingRequest{
			Participant:     p.XID,
			SendToARID:      recipientDoc.ListenAt,
			CollectFromARID: hop.CollectFrom,
			Phase:           string(domain.FuncSignCommitResponse),
		})
	}
	if err := e.Registry.SetPendingRequests(sessionID, pending); err != nil {
		return domain.ARID{}, err
	}
	errs := e.Collector.Dispatch(ctx, e.KV, msgs, e.Parallel)
	for xid, err := range errs {
		if err != nil {
			return domain.ARID{}, xerr.Wrap(xerr.TransportError, fmt.Sprintf("sign.start: dispatch to %s", xid), err)
		}
	}
	return sessionID, nil
}

// PreviewStart builds the signCommit envelope Start would send, without
// persisting a session or dispatching anything (spec.md §4.6 phase 1's
// preview mode: "prints one unsealed request" — here the sealed wire form,
// since the whole point of the construction is that only a recipient can
// unseal their own copy).
func (e *Engine) PreviewStart(groupID domain.ARID, message []byte) ([]byte, error) {
	record, ok, err := e.Registry.Group(groupID)
	if err != nil {
		return nil, err
	}
	if !ok || record.Status != domain.GroupFinalized {
		return nil, xerr.New(xerr.ProtocolError, "sign.start", "group is not finalized")
	}
	if record.IdentifierOf(e.Me.XID) == 0 {
		return nil, xerr.New(xerr.ProtocolError, "sign.start", "this party is not a participant of the group")
	}
	sessionID, err := router.NewARID()
	if err != nil {
		return nil, xerr.Wrap(xerr.TransportError, "sign.start", err)
	}

	participants := make([]domain.SigningParticipant, len(record.Participants))
	for i, p := range record.Participants {
		participants[i] = domain.SigningParticipant{XID: p.XID, Identifier: p.Identifier}
	}
	others := otherSigners(record.Participants, e.Me.XID)
	if len(others) == 0 {
		return nil, xerr.New(xerr.ProtocolError, "sign.start", "no recipients to preview")
	}
	slots, err := router.NewHopSlotsFor(xidsOf(others))
	if err != nil {
		return nil, xerr.Wrap(xerr.TransportError, "sign.start", err)
	}
	knownDocs, err := e.Registry.ListParticipants()
	if err != nil {
		return nil, err
	}

	recipientDocs := make([]domain.XIDDocument, 0, len(others))
	leafParams := make(map[domain.XID]map[string]any, len(others))
	for _, p := range others {
		hop := slots[p.XID]
		recipientDoc, ok := findXIDDocument(knownDocs, p.XID)
		if !ok {
			return nil, xerr.New(xerr.StateCorruption, "sign.start", "unknown participant xid document")
		}
		leaf, err := envelope.EncodeParams(signCommitLeafParams{Identifier: p.Identifier, ResponseARID: hop.CollectFrom})
		if err != nil {
			return nil, xerr.Wrap(xerr.ProtocolError, "sign.start", err)
		}
		recipientDocs = append(recipientDocs, recipientDoc)
		leafParams[p.XID] = leaf
	}
	shared, err := envelope.EncodeParams(signCommitSharedParams{
		Group:          groupID,
		Session:        sessionID,
		MinSigners:     record.MinSigners,
		TargetEnvelope: message,
		Participants:   participants,
	})
	if err != nil {
		return nil, xerr.Wrap(xerr.ProtocolError, "sign.start", err)
	}
	return e.Codec.EncodeMulticastRequest(domain.FuncSignCommit, shared, leafParams, e.Me, recipientDocs, sessionID, time.Now().Add(e.timeout()).Unix(), nil)
}

// CollectCommits waits for signCommitResponse from at least MinSigners
// candidates, then dispatches signShare carrying the combined commitment
// set to everyone who committed (spec.md §4.6 phases 3-4).
func (e *Engine) CollectCommits(ctx context.Context, groupID, sessionID domain.ARID) error {
	rec, err := e.State.LoadSession(groupID, sessionID)
	if err != nil {
		return err
	}
	pending, err := e.Registry.PendingRequests(sessionID)
	if err != nil {
		return err
	}
	senders, err := e.knownSenders()
	if err != nil {
		return err
	}

	reqs := make([]domain.ParticipantRequest, 0, len(pending))
	for _, p := range pending {
		reqs = append(reqs, domain.ParticipantRequest{Participant: p.Participant, CollectARID: p.CollectFromARID})
	}
	collectCtx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()
	result := e.Collector.Collect(collectCtx, e.KV, reqs, e.Parallel, func(xid domain.XID, env []byte) (bool, error) {
		resp, err := e.Codec.DecodeResponse(env, e.Me, senders)
		if err != nil {
			return false, err
		}
		return resp.IsError(), nil
	})

	nextARIDs := make(map[domain.XID]domain.ARID, len(result.Successes))
	for _, out := range result.Successes {
		resp, err := e.Codec.DecodeResponse(out.Envelope, e.Me, senders)
		if err != nil {
			return err
		}
		var params signCommitResponseParams
		if err := envelope.DecodeParams(resp.Result, &params); err != nil {
			return err
		}
		if params.Session != sessionID {
			return xerr.New(xerr.SessionIdMismatch, "sign.collect-commits", "response session mismatch")
		}
		if existing, ok := rec.Commitments[params.Identifier]; ok && string(existing) != string(params.Commitment) {
			return xerr.New(xerr.ProtocolError, "sign.collect-commits", "commitment_tamper")
		}
		rec.Commitments[params.Identifier] = params.Commitment
		if resp.PeerContinuation == nil {
			return xerr.New(xerr.ProtocolError, "sign.collect-commits", "response missing peer continuation")
		}
		nextARIDs[out.Participant] = resp.PeerContinuation.ExpectedNextRequestARID
	}

	if len(rec.Commitments) < rec.MinSigners {
		rec.Status = domain.SessionAborted
		_ = e.State.SaveSession(groupID, sessionID, rec)
		return xerr.New(xerr.QuorumNotMet, "sign.collect-commits", fmt.Sprintf("have %d commitments, need %d", len(rec.Commitments), rec.MinSigners))
	}
	rec.Status = domain.SessionCommitted
	if err := e.State.SaveCommitments(groupID, sessionID, rec.Commitments); err != nil {
		return err
	}
	if err := e.State.SaveSession(groupID, sessionID, rec); err != nil {
		return err
	}

	return e.dispatchShare(ctx, rec, nextARIDs)
}

func (e *Engine) dispatchShare(ctx context.Context, rec domain.SessionRecord, nextARIDs map[domain.XID]domain.ARID) error {
	kp, _, err := e.GroupState.LoadKeyPackage(rec.GroupID)
	if err != nil {
		return err
	}
	me := identifierIn(rec, e.Me.XID)
	myShare, err := e.Suite.SignRound2(rec.Nonces, kp, rec.TargetDigest, rec.Commitments)
	if err != nil {
		return xerr.Wrap(xerr.ProtocolError, "sign.share", err)
	}
	rec.Shares = map[domain.Identifier]domain.SignatureShare{me: myShare}

	committers := make([]domain.SigningParticipant, 0, len(rec.Commitments))
	for _, p := range rec.Participants {
		if p.XID == e.Me.XID {
			continue
		}
		if _, ok := rec.Commitments[p.Identifier]; ok {
			committers = append(committers, p)
		}
	}
	slots, err := router.NewHopSlotsFor(xidsOfSigning(committers))
	if err != nil {
		return xerr.Wrap(xerr.TransportError, "sign.share", err)
	}
	knownDocs, err := e.Registry.ListParticipants()
	if err != nil {
		return err
	}

	pending := make([]domain.PendingRequest, 0, len(committers))
	recipientDocs := make([]domain.XIDDocument, 0, len(committers))
	sendTargets := make(map[domain.XID]domain.ARID, len(committers))
	leafParams := make(map[domain.XID]map[string]any, len(committers))
	for _, p := range committers {
		hop := slots[p.XID]
		sendTo, ok := nextARIDs[p.XID]
		if !ok || sendTo.IsZero() {
			return xerr.New(xerr.StateCorruption, "sign.share", "missing chained rendezvous arid for "+p.XID.String())
		}
		recipientDoc, ok := findXIDDocument(knownDocs, p.XID)
		if !ok {
			return xerr.New(xerr.StateCorruption, "sign.share", "unknown participant xid document")
		}
		leaf, err := envelope.EncodeParams(signShareLeafParams{NextResponseARID: hop.CollectFrom})
		if err != nil {
			return xerr.Wrap(xerr.ProtocolError, "sign.share", err)
		}
		recipientDocs = append(recipientDocs, recipientDoc)
		sendTargets[p.XID] = sendTo
		leafParams[p.XID] = leaf
		pending = append(pending, domain.PendingRequest{
			Participant:     p.XID,
			SendToARID:      sendTo,
			CollectFromARID: hop.CollectFrom,
			Phase:           string(domain.FuncSignShareResponse),
		})
	}
	if err := e.Registry.SetPendingRequests(rec.SessionID, pending); err != nil {
		return err
	}

	msgs := make([]domain.DispatchMessage, 0, len(committers))
	if len(recipientDocs) > 0 {
		shared, err := envelope.EncodeParams(signShareSharedParams{
			Group:        rec.GroupID,
			Session:      rec.SessionID,
			TargetDigest: rec.TargetDigest,
			Commitments:  rec.Commitments,
		})
		if err != nil {
			return xerr.Wrap(xerr.ProtocolError, "sign.share", err)
		}
		// Every committer gets the same combined commitment set back; only
		// the next response ARID differs, so it travels as a per-recipient
		// leaf in one multicast envelope (spec.md §4.3/§9).
		env, err := e.Codec.EncodeMulticastRequest(domain.FuncSignShare, shared, leafParams, e.Me, recipientDocs, rec.SessionID, time.Now().Add(e.timeout()).Unix(), nil)
		if err != nil {
			return err
		}
		for _, doc := range recipientDocs {
			msgs = append(msgs, domain.DispatchMessage{Recipient: doc.XID, SendARID: sendTargets[doc.XID], Envelope: env})
		}
	}
	if err := e.State.SaveSession(rec.GroupID, rec.SessionID, rec); err != nil {
		return err
	}
	errs := e.Collector.Dispatch(ctx, e.KV, msgs, e.Parallel)
	for xid, err := range errs {
		if err != nil {
			return xerr.Wrap(xerr.TransportError, fmt.Sprintf("sign.share: dispatch to %s", xid), err)
		}
	}
	return nil
}

// CollectShares waits for signShareResponse from every committer,
// aggregates and verifies the signature, persists it, and dispatches
// signFinalize so every signer can independently verify and attach it
// (spec.md §4.6 phases 5-6).
func (e *Engine) CollectShares(ctx context.Context, groupID, sessionID domain.ARID) (domain.Signature, error) {
	rec, err := e.State.LoadSession(groupID, sessionID)
	if err != nil {
		return nil, err
	}
	pending, err := e.Registry.PendingRequests(sessionID)
	if err != nil {
		return nil, err
	}
	senders, err := e.knownSenders()
	if err != nil {
		return nil, err
	}

	reqs := make([]domain.ParticipantRequest, 0, len(pending))
	for _, p := range pending {
		reqs = append(reqs, domain.ParticipantRequest{Participant: p.Participant, CollectARID: p.CollectFromARID})
	}
	collectCtx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()
	result := e.Collector.Collect(collectCtx, e.KV, reqs, e.Parallel, func(xid domain.XID, env []byte) (bool, error) {
		resp, err := e.Codec.DecodeResponse(env, e.Me, senders)
		if err != nil {
			return false, err
		}
		return resp.IsError(), nil
	})
	nextARIDs := make(map[domain.XID]domain.ARID, len(result.Successes))
	for _, out := range result.Successes {
		resp, err := e.Codec.DecodeResponse(out.Envelope, e.Me, senders)
		if err != nil {
			return nil, err
		}
		var params signShareResponseParams
		if err := envelope.DecodeParams(resp.Result, &params); err != nil {
			return nil, err
		}
		if params.Session != sessionID {
			return nil, xerr.New(xerr.SessionIdMismatch, "sign.collect-shares", "response session mismatch")
		}
		id := identifierIn(rec, out.Participant)
		rec.Shares[id] = params.Share
		if resp.PeerContinuation == nil {
			return nil, xerr.New(xerr.ProtocolError, "sign.collect-shares", "response missing peer continuation")
		}
		nextARIDs[out.Participant] = resp.PeerContinuation.ExpectedNextRequestARID
	}
	if len(rec.Shares) < rec.MinSigners {
		rec.Status = domain.SessionAborted
		_ = e.State.SaveSession(groupID, sessionID, rec)
		return nil, xerr.New(xerr.QuorumNotMet, "sign.collect-shares", fmt.Sprintf("have %d shares, need %d", len(rec.Shares), rec.MinSigners))
	}
	if err := e.State.SaveShares(groupID, sessionID, rec.Shares); err != nil {
		return nil, err
	}

	_, pkp, err := e.GroupState.LoadKeyPackage(groupID)
	if err != nil {
		return nil, err
	}
	sig, err := e.Suite.Aggregate(pkp, rec.TargetDigest, rec.Commitments, rec.Shares)
	if err != nil {
		return nil, xerr.Wrap(xerr.ProtocolError, "sign.collect-shares", err)
	}
	rec.Signature = sig
	rec.Status = domain.SessionFinalized
	if err := e.State.SaveFinal(groupID, sessionID, sig); err != nil {
		return nil, err
	}
	if err := e.State.SaveSession(groupID, sessionID, rec); err != nil {
		return nil, err
	}

	if err := e.dispatchFinalize(ctx, rec, nextARIDs); err != nil {
		return nil, err
	}
	return sig, e.Attach(groupID, sessionID)
}

func (e *Engine) dispatchFinalize(ctx context.Context, rec domain.SessionRecord, nextARIDs map[domain.XID]domain.ARID) error {
	committers := make([]domain.SigningParticipant, 0, len(rec.Shares))
	for _, p := range rec.Participants {
		if p.XID == e.Me.XID {
			continue
		}
		if _, ok := rec.Shares[p.Identifier]; ok {
			committers = append(committers, p)
		}
	}
	knownDocs, err := e.Registry.ListParticipants()
	if err != nil {
		return err
	}
	recipientDocs := make([]domain.XIDDocument, 0, len(committers))
	sendTargets := make(map[domain.XID]domain.ARID, len(committers))
	for _, p := range committers {
		recipientDoc, ok := findXIDDocument(knownDocs, p.XID)
		if !ok {
			continue
		}
		sendTo, ok := nextARIDs[p.XID]
		if !ok || sendTo.IsZero() {
			return xerr.New(xerr.StateCorruption, "sign.finalize", "missing chained rendezvous arid for "+p.XID.String())
		}
		recipientDocs = append(recipientDocs, recipientDoc)
		sendTargets[p.XID] = sendTo
	}
	if len(recipientDocs) == 0 {
		return nil
	}
	params, err := envelope.EncodeParams(signFinalizeParams{Group: rec.GroupID, Session: rec.SessionID, Signature: rec.Signature})
	if err != nil {
		return xerr.Wrap(xerr.ProtocolError, "sign.finalize", err)
	}
	// The aggregated signature is identical for every signer, so one
	// multicast envelope (no per-recipient leaf needed) reaches the whole
	// committer set (spec.md §4.3/§9).
	env, err := e.Codec.EncodeRequest(domain.FuncSignFinalize, params, e.Me, recipientDocs, rec.SessionID, time.Now().Add(e.timeout()).Unix(), nil)
	if err != nil {
		return err
	}
	msgs := make([]domain.DispatchMessage, 0, len(recipientDocs))
	for _, doc := range recipientDocs {
		msgs = append(msgs, domain.DispatchMessage{Recipient: doc.XID, SendARID: sendTargets[doc.XID], Envelope: env})
	}
	errs := e.Collector.Dispatch(ctx, e.KV, msgs, e.Parallel)
	for xid, err := range errs {
		if err != nil {
			return xerr.Wrap(xerr.TransportError, fmt.Sprintf("sign.finalize: dispatch to %s", xid), err)
		}
	}
	return nil
}

// Attach marks a session's signature as locally verified and persisted,
// the shared last step every signer (coordinator included) performs before
// treating a session as complete.
func (e *Engine) Attach(groupID, sessionID domain.ARID) error {
	rec, err := e.State.LoadSession(groupID, sessionID)
	if err != nil {
		return err
	}
	group, ok, err := e.Registry.Group(groupID)
	if err != nil {
		return err
	}
	if !ok {
		return xerr.New(xerr.StateCorruption, "sign.attach", "unknown group")
	}
	if err := e.Suite.Verify(group.VerifyingKey, rec.TargetDigest, rec.Signature); err != nil {
		rec.Status = domain.SessionAborted
		_ = e.State.SaveSession(groupID, sessionID, rec)
		return xerr.Wrap(xerr.ProtocolError, "sign.attach", err)
	}
	rec.Status = domain.SessionAttached
	return e.State.SaveSession(groupID, sessionID, rec)
}

func identifierIn(rec domain.SessionRecord, xid domain.XID) domain.Identifier {
	p, _ := rec.ParticipantByXID(xid)
	return p.Identifier
}

func otherSigners(all []domain.GroupParticipant, self domain.XID) []domain.GroupParticipant {
	out := make([]domain.GroupParticipant, 0, len(all)-1)
	for _, p := range all {
		if p.XID != self {
			out = append(out, p)
		}
	}
	return out
}

func xidsOf(participants []domain.GroupParticipant) []domain.XID {
	out := make([]domain.XID, len(participants))
	for i, p := range participants {
		out[i] = p.XID
	}
	return out
}

func xidsOfSigning(participants []domain.SigningParticipant) []domain.XID {
	out := make([]domain.XID, len(participants))
	for i, p := range participants {
		out[i] = p.XID
	}
	return out
}
