package dkg

import (
	"context"
	"fmt"
	"time"

	domain "xfrost/internal/domain"
	"xfrost/internal/envelope"
	"xfrost/internal/router"
	"xfrost/internal/xerr"
)

// Invite starts a new DKG group: it assigns FROST identifiers, persists the
// group record and the coordinator's own round-1 contribution, and
// dispatches a dkgGroupInvite to every other participant (spec.md §4.5
// phase 1).
func (e *Engine) Invite(ctx context.Context, charter string, minSigners int, others []domain.XIDDocument) (domain.ARID, error) {
	all := AssignIdentifiers(e.Me.XIDDocument, others)
	me := lookupByXID(all, e.Me.XID)
	if me.Identifier == 0 {
		return domain.ARID{}, xerr.New(xerr.ProtocolError, "dkg.invite", "coordinator missing from assigned participants")
	}

	groupID, err := router.NewARID()
	if err != nil {
		return domain.ARID{}, xerr.Wrap(xerr.TransportError, "dkg.invite", err)
	}

	secret, pkg, err := e.Suite.Part1(me.Identifier, len(all), minSigners)
	if err != nil {
		return domain.ARID{}, xerr.Wrap(xerr.ProtocolError, "dkg.invite", err)
	}
	if err := e.State.SaveRound1Secret(groupID, secret); err != nil {
		return domain.ARID{}, err
	}
	if err := e.State.SaveRound1Package(groupID, pkg); err != nil {
		return domain.ARID{}, err
	}

	record := domain.GroupRecord{
		GroupID:      groupID,
		Charter:      charter,
		MinSigners:   minSigners,
		Coordinator:  e.Me.XID,
		Participants: all,
		Status:       domain.GroupInvited,
		Paths:        domain.ContributionPaths{Round1Secret: "round1secret.json", Round1Package: "round1package.json"},
	}
	if err := e.Registry.UpsertGroup(record); err != nil {
		return domain.ARID{}, err
	}

	slots, err := router.NewHopSlotsFor(xidsOf(others))
	if err != nil {
		return domain.ARID{}, xerr.Wrap(xerr.TransportError, "dkg.invite", err)
	}

	pending := make([]domain.PendingRequest, 0, len(others))
	leafParams := make(map[domain.XID]map[string]any, len(others))
	for _, doc := range others {
		hop := slots[doc.XID]
		if doc.ListenAt.IsZero() {
			return domain.ARID{}, xerr.New(xerr.ProtocolError, "dkg.invite", fmt.Sprintf("participant %s has no bootstrap listening arid on file", doc.XID))
		}
		leaf, err := envelope.EncodeParams(inviteLeafParams{ResponseARID: hop.CollectFrom})
		if err != nil {
			return domain.ARID{}, xerr.Wrap(xerr.ProtocolError, "dkg.invite", err)
		}
		leafParams[doc.XID] = leaf
		pending = append(pending, domain.PendingRequest{
			Participant:     doc.XID,
			SendToARID:      doc.ListenAt,
			CollectFromARID: hop.CollectFrom,
			Phase:           string(domain.FuncDkgInviteResponse),
		})
	}
	if err := e.Registry.SetPendingRequests(groupID, pending); err != nil {
		return domain.ARID{}, err
	}

	msgs := make([]domain.DispatchMessage, 0, len(others))
	if len(others) > 0 {
		shared, err := envelope.EncodeParams(inviteSharedParams{
			Charter:      charter,
			MinSigners:   minSigners,
			Session:      groupID,
			Participants: all,
		})
		if err != nil {
			return domain.ARID{}, xerr.Wrap(xerr.ProtocolError, "dkg.invite", err)
		}
		// One multicast envelope carries the charter and assigned
		// participant set to every invitee; each invitee's own response
		// ARID travels as a separately-sealed leaf (spec.md §4.3/§9).
		env, err := e.Codec.EncodeMulticastRequest(domain.FuncDkgGroupInvite, shared, leafParams, e.Me, others, groupID, time.Now().Add(e.timeout()).Unix(), nil)
		if err != nil {
			return domain.ARID{}, err
		}
		for _, doc := range others {
			msgs = append(msgs, domain.DispatchMessage{Recipient: doc.XID, SendARID: doc.ListenAt, Envelope: env})
		}
	}

	errs := e.Collector.Dispatch(ctx, e.KV, msgs, e.Parallel)
	for xid, err := range errs {
		if err != nil {
			return domain.ARID{}, xerr.Wrap(xerr.TransportError, fmt.Sprintf("dkg.invite: dispatch to %s", xid), err)
		}
	}
	return groupID, nil
}

// PreviewInvite builds the dkgGroupInvite envelope Invite would send,
// without assigning a group ARID that persists, saving any round-1
// contribution, or dispatching anything (spec.md §4.5 phase 1's preview
// mode: "produces the envelope without posting").
func (e *Engine) PreviewInvite(charter string, minSigners int, others []domain.XIDDocument) ([]byte, error) {
	all := AssignIdentifiers(e.Me.XIDDocument, others)
	me := lookupByXID(all, e.Me.XID)
	if me.Identifier == 0 {
		return nil, xerr.New(xerr.ProtocolError, "dkg.invite", "coordinator missing from assigned participants")
	}
	if len(others) == 0 {
		return nil, xerr.New(xerr.ProtocolError, "dkg.invite", "no recipients to preview")
	}
	groupID, err := router.NewARID()
	if err != nil {
		return nil, xerr.Wrap(xerr.TransportError, "dkg.invite", err)
	}
	slots, err := router.NewHopSlotsFor(xidsOf(others))
	if err != nil {
		return nil, xerr.Wrap(xerr.TransportError, "dkg.invite", err)
	}
	leafParams := make(map[domain.XID]map[string]any, len(others))
	for _, doc := range others {
		hop := slots[doc.XID]
		leaf, err := envelope.EncodeParams(inviteLeafParams{ResponseARID: hop.CollectFrom})
		if err != nil {
			return nil, xerr.Wrap(xerr.ProtocolError, "dkg.invite", err)
		}
		leafParams[doc.XID] = leaf
	}
	shared, err := envelope.EncodeParams(inviteSharedParams{
		Charter:      charter,
		MinSigners:   minSigners,
		Session:      groupID,
		Participants: all,
	})
	if err != nil {
		return nil, xerr.Wrap(xerr.ProtocolError, "dkg.invite", err)
	}
	return e.Codec.EncodeMulticastRequest(domain.FuncDkgGroupInvite, shared, leafParams, e.Me, others, groupID, time.Now().Add(e.timeout()).Unix(), nil)
}

// CollectRound1 waits for every participant's dkgInviteResponse, then
// dispatches dkgRound2 carrying the full round-1 package set (spec.md §4.5
// phase 3, the "round1 collect + round2 dispatch" transition).
func (e *Engine) CollectRound1(ctx context.Context, groupID domain.ARID) error {
	record, ok, err := e.Registry.Group(groupID)
	if err != nil {
		return err
	}
	if !ok {
		return xerr.New(xerr.StateCorruption, "dkg.collect-round1", "unknown group")
	}
	pending, err := e.Registry.PendingRequests(groupID)
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
		if resp.IsError() {
			return true, nil
		}
		var params inviteResponseParams
		return false, envelope.DecodeParams(resp.Result, &params)
	})

	myPkg, err := e.State.LoadRound1Package(groupID)
	if err != nil {
		return err
	}
	me := record.IdentifierOf(e.Me.XID)
	round1 := map[domain.Identifier]domain.Round1Package{me: myPkg}

	missing := make([]domain.XID, 0)
	for _, out := range result.TimedOut {
		missing = append(missing, out.Participant)
	}
	for _, out := range result.Rejected {
		missing = append(missing, out.Participant)
	}
	for _, out := range result.Errors {
		missing = append(missing, out.Participant)
	}
	if len(missing) > 0 {
		record.Status = domain.GroupAborted
		record.Missing = missing
		_ = e.Registry.UpsertGroup(record)
		return xerr.New(xerr.ParticipantMissing, "dkg.collect-round1", fmt.Sprintf("%d participant(s) did not respond", len(missing)))
	}

	nextARIDs := make(map[domain.XID]domain.ARID, len(result.Successes))
	for _, out := range result.Successes {
		resp, err := e.Codec.DecodeResponse(out.Envelope, e.Me, senders)
		if err != nil {
			return err
		}
		var params inviteResponseParams
		if err := envelope.DecodeParams(resp.Result, &params); err != nil {
			return err
		}
		if params.Session != groupID {
			return xerr.New(xerr.SessionIdMismatch, "dkg.collect-round1", "response session mismatch")
		}
		if _, exists := round1[params.Identifier]; exists {
			return xerr.New(xerr.ProtocolError, "dkg.collect-round1", "duplicate identifier in round1 collection")
		}
		round1[params.Identifier] = params.Round1Package
		if resp.PeerContinuation == nil {
			return xerr.New(xerr.ProtocolError, "dkg.collect-round1", "response missing peer continuation")
		}
		nextARIDs[out.Participant] = resp.PeerContinuation.ExpectedNextRequestARID
	}
	if err := e.State.SaveCollectedRound1(groupID, round1); err != nil {
		return err
	}

	record.Status = domain.GroupRound1Done
	if err := e.Registry.UpsertGroup(record); err != nil {
		return err
	}
	return e.dispatchRound2(ctx, record, round1, nextARIDs)
}

func (e *Engine) dispatchRound2(ctx context.Context, record domain.GroupRecord, round1 map[domain.Identifier]domain.Round1Package, nextARIDs map[domain.XID]domain.ARID) error {
	secret, err := e.State.LoadRound1Secret(record.GroupID)
	if err != nil {
		return err
	}
	round2Secret, round2ToSend, err := e.Suite.Part2(secret, round1)
	if err != nil {
		return xerr.Wrap(xerr.ProtocolError, "dkg.round2", err)
	}
	if err := e.State.SaveRound2Secret(record.GroupID, round2Secret); err != nil {
		return err
	}

	others := otherParticipants(record.Participants, e.Me.XID)
	slots, err := router.NewHopSlotsFor(xidsOf2(others))
	if err != nil {
		return xerr.Wrap(xerr.TransportError, "dkg.round2", err)
	}

	knownDocs, err := e.Registry.ListParticipants()
	if err != nil {
		return err
	}

	pending := make([]domain.PendingRequest, 0, len(others))
	recipientDocs := make([]domain.XIDDocument, 0, len(others))
	sendTargets := make(map[domain.XID]domain.ARID, len(others))
	leafParams := make(map[domain.XID]map[string]any, len(others))
	for _, p := range others {
		hop := slots[p.XID]
		sendTo, ok := nextARIDs[p.XID]
		if !ok || sendTo.IsZero() {
			return xerr.New(xerr.StateCorruption, "dkg.round2", "missing chained rendezvous arid for "+p.XID.String())
		}
		recipientDoc, ok := findXIDDocument(knownDocs, p.XID)
		if !ok {
			return xerr.New(xerr.StateCorruption, "dkg.round2", "unknown participant xid document")
		}
		leaf, err := envelope.EncodeParams(round2LeafParams{NextResponseARID: hop.CollectFrom})
		if err != nil {
			return xerr.Wrap(xerr.ProtocolError, "dkg.round2", err)
		}
		recipientDocs = append(recipientDocs, recipientDoc)
		sendTargets[p.XID] = sendTo
		leafParams[p.XID] = leaf
		pending = append(pending, domain.PendingRequest{
			Participant:     p.XID,
			SendToARID:      sendTo,
			CollectFromARID: hop.CollectFrom,
			Phase:           string(domain.FuncDkgRound2Response),
		})
	}
	if err := e.Registry.SetPendingRequests(record.GroupID, pending); err != nil {
		return err
	}

	msgs := make([]domain.DispatchMessage, 0, len(others))
	if len(recipientDocs) > 0 {
		shared, err := envelope.EncodeParams(round2SharedParams{
			Session:        record.GroupID,
			Round1Packages: round1,
		})
		if err != nil {
			return xerr.Wrap(xerr.ProtocolError, "dkg.round2", err)
		}
		// The full round-1 package set is identical for every recipient;
		// only each one's next response ARID differs, carried as a
		// per-recipient leaf in one multicast envelope (spec.md §4.3/§9).
		env, err := e.Codec.EncodeMulticastRequest(domain.FuncDkgRound2, shared, leafParams, e.Me, recipientDocs, record.GroupID, time.Now().Add(e.timeout()).Unix(), nil)
		if err != nil {
			return err
		}
		for _, doc := range recipientDocs {
			msgs = append(msgs, domain.DispatchMessage{Recipient: doc.XID, SendARID: sendTargets[doc.XID], Envelope: env})
		}
	}
	errs := e.Collector.Dispatch(ctx, e.KV, msgs, e.Parallel)
	for xid, err := range errs {
		if err != nil {
			return xerr.Wrap(xerr.TransportError, fmt.Sprintf("dkg.round2: dispatch to %s", xid), err)
		}
	}
	return nil
}

// CollectRound2 waits for every participant's dkgRound2Response, pivots the
// flat (sender, recipient) share map, and dispatches dkgFinalize to each
// recipient with only the shares addressed to them (spec.md §4.5 phase 5).
func (e *Engine) CollectRound2(ctx context.Context, groupID domain.ARID) error {
	record, ok, err := e.Registry.Group(groupID)
	if err != nil {
		return err
	}
	if !ok {
		return xerr.New(xerr.StateCorruption, "dkg.collect-round2", "unknown group")
	}
	pending, err := e.Registry.PendingRequests(groupID)
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
		_, err := e.Codec.DecodeResponse(env, e.Me, senders)
		return false, err
	})
	if len(result.TimedOut)+len(result.Rejected)+len(result.Errors) > 0 {
		record.Status = domain.GroupAborted
		for _, out := range append(append(result.TimedOut, result.Rejected...), result.Errors...) {
			record.Missing = append(record.Missing, out.Participant)
		}
		_ = e.Registry.UpsertGroup(record)
		return xerr.New(xerr.ParticipantMissing, "dkg.collect-round2", "one or more participants did not respond")
	}

	me := record.IdentifierOf(e.Me.XID)
	round1, err := e.State.LoadCollectedRound1(groupID)
	if err != nil {
		return err
	}
	secret, err := e.State.LoadRound1Secret(groupID)
	if err != nil {
		return err
	}
	_, myRound2ToSend, err := e.Suite.Part2(secret, round1)
	if err != nil {
		return xerr.Wrap(xerr.ProtocolError, "dkg.collect-round2", err)
	}

	flat := make(map[[2]domain.Identifier]domain.Round2Package)
	for recipient, pkg := range myRound2ToSend {
		flat[[2]domain.Identifier{me, recipient}] = pkg
	}
	nextARIDs := make(map[domain.XID]domain.ARID, len(result.Successes))
	for _, out := range result.Successes {
		resp, err := e.Codec.DecodeResponse(out.Envelope, e.Me, senders)
		if err != nil {
			return err
		}
		var params round2ResponseParams
		if err := envelope.DecodeParams(resp.Result, &params); err != nil {
			return err
		}
		if params.Session != groupID {
			return xerr.New(xerr.SessionIdMismatch, "dkg.collect-round2", "response session mismatch")
		}
		sender := record.IdentifierOf(out.Participant)
		for recipient, pkg := range params.Round2Packages {
			flat[[2]domain.Identifier{sender, recipient}] = pkg
		}
		if resp.PeerContinuation == nil {
			return xerr.New(xerr.ProtocolError, "dkg.collect-round2", "response missing peer continuation")
		}
		nextARIDs[out.Participant] = resp.PeerContinuation.ExpectedNextRequestARID
	}
	if err := e.State.SaveCollectedRound2(groupID, flat); err != nil {
		return err
	}

	record.Status = domain.GroupRound2Done
	if err := e.Registry.UpsertGroup(record); err != nil {
		return err
	}
	return e.dispatchFinalize(ctx, record, flat, nextARIDs)
}

func (e *Engine) dispatchFinalize(ctx context.Context, record domain.GroupRecord, flat map[[2]domain.Identifier]domain.Round2Package, nextARIDs map[domain.XID]domain.ARID) error {
	others := otherParticipants(record.Participants, e.Me.XID)
	slots, err := router.NewHopSlotsFor(xidsOf2(others))
	if err != nil {
		return xerr.Wrap(xerr.TransportError, "dkg.finalize", err)
	}
	knownDocs, err := e.Registry.ListParticipants()
	if err != nil {
		return err
	}

	pending := make([]domain.PendingRequest, 0, len(others))
	msgs := make([]domain.DispatchMessage, 0, len(others))
	for _, p := range others {
		hop := slots[p.XID]
		sendTo, ok := nextARIDs[p.XID]
		if !ok || sendTo.IsZero() {
			return xerr.New(xerr.StateCorruption, "dkg.finalize", "missing chained rendezvous arid for "+p.XID.String())
		}
		toMe := make(map[domain.Identifier]domain.Round2Package)
		for key, pkg := range flat {
			if key[1] == p.Identifier {
				toMe[key[0]] = pkg
			}
		}
		params, err := envelope.EncodeParams(finalizeParams{
			Session:          record.GroupID,
			Round2Packages:   toMe,
			NextResponseARID: hop.CollectFrom,
		})
		if err != nil {
			return xerr.Wrap(xerr.ProtocolError, "dkg.finalize", err)
		}
		recipientDoc, ok := findXIDDocument(knownDocs, p.XID)
		if !ok {
			return xerr.New(xerr.StateCorruption, "dkg.finalize", "unknown participant xid document")
		}
		env, err := e.Codec.EncodeRequest(domain.FuncDkgFinalize, params, e.Me, []domain.XIDDocument{recipientDoc}, sendTo, time.Now().Add(e.timeout()).Unix(), nil)
		if err != nil {
			return err
		}
		pending = append(pending, domain.PendingRequest{
			Participant:     p.XID,
			SendToARID:      sendTo,
			CollectFromARID: hop.CollectFrom,
			Phase:           string(domain.FuncDkgFinalizeResponse),
		})
		msgs = append(msgs, domain.DispatchMessage{Recipient: p.XID, SendARID: sendTo, Envelope: env})
	}
	if err := e.Registry.SetPendingRequests(record.GroupID, pending); err != nil {
		return err
	}
	errs := e.Collector.Dispatch(ctx, e.KV, msgs, e.Parallel)
	for xid, err := range errs {
		if err != nil {
			return xerr.Wrap(xerr.TransportError, fmt.Sprintf("dkg.finalize: dispatch to %s", xid), err)
		}
	}
	return nil
}

// CollectFinalize completes the group: it computes the coordinator's own
// key package, waits for every participant's dkgFinalizeResponse, and
// requires byte-identical public key packages across the whole group
// before marking it finalized (spec.md §4.5 phase 6, §8 scenario 1).
func (e *Engine) CollectFinalize(ctx context.Context, groupID domain.ARID) (domain.PublicKeyPackage, error) {
	record, ok, err := e.Registry.Group(groupID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, xerr.New(xerr.StateCorruption, "dkg.finalize-collect", "unknown group")
	}

	me := record.IdentifierOf(e.Me.XID)
	round1, err := e.State.LoadCollectedRound1(groupID)
	if err != nil {
		return nil, err
	}
	flat, err := e.State.LoadCollectedRound2(groupID)
	if err != nil {
		return nil, err
	}
	round2Secret, err := e.State.LoadRound2Secret(groupID)
	if err != nil {
		return nil, err
	}
	myToMe := make(map[domain.Identifier]domain.Round2Package)
	for key, pkg := range flat {
		if key[1] == me {
			myToMe[key[0]] = pkg
		}
	}
	kp, pkp, err := e.Suite.Part3(round2Secret, round1, myToMe)
	if err != nil {
		return nil, xerr.Wrap(xerr.ProtocolError, "dkg.finalize-collect", err)
	}
	if err := e.State.SaveKeyPackage(groupID, kp, pkp); err != nil {
		return nil, err
	}

	pending, err := e.Registry.PendingRequests(groupID)
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
		_, err := e.Codec.DecodeResponse(env, e.Me, senders)
		return false, err
	})
	if len(result.TimedOut)+len(result.Rejected)+len(result.Errors) > 0 {
		record.Status = domain.GroupAborted
		_ = e.Registry.UpsertGroup(record)
		return nil, xerr.New(xerr.ParticipantMissing, "dkg.finalize-collect", "one or more participants did not respond")
	}

	collected := map[domain.Identifier]domain.PublicKeyPackage{me: pkp}
	for _, out := range result.Successes {
		resp, err := e.Codec.DecodeResponse(out.Envelope, e.Me, senders)
		if err != nil {
			return nil, err
		}
		var params finalizeResponseParams
		if err := envelope.DecodeParams(resp.Result, &params); err != nil {
			return nil, err
		}
		if params.Session != groupID {
			return nil, xerr.New(xerr.SessionIdMismatch, "dkg.finalize-collect", "response session mismatch")
		}
		collected[record.IdentifierOf(out.Participant)] = params.PublicKeyPackage
	}
	if err := e.State.SaveCollectedFinalize(groupID, collected); err != nil {
		return nil, err
	}
	for id, other := range collected {
		if id == me {
			continue
		}
		if string(other) != string(pkp) {
			record.Status = domain.GroupAborted
			_ = e.Registry.UpsertGroup(record)
			return nil, xerr.New(xerr.ProtocolError, "dkg.finalize-collect", "public key packages diverge across participants")
		}
	}

	vk, err := e.Suite.VerifyingKeyOf(pkp)
	if err != nil {
		return nil, xerr.Wrap(xerr.ProtocolError, "dkg.finalize-collect", err)
	}
	record.Status = domain.GroupFinalized
	record.VerifyingKey = vk
	if err := e.Registry.UpsertGroup(record); err != nil {
		return nil, err
	}
	if err := e.Registry.ClearPendingRequests(groupID); err != nil {
		return nil, err
	}
	return pkp, nil
}

func lookupByXID(all []domain.GroupParticipant, xid domain.XID) domain.GroupParticipant {
	for _, p := range all {
		if p.XID == xid {
			return p
		}
	}
	return domain.GroupParticipant{}
}

func otherParticipants(all []domain.GroupParticipant, self domain.XID) []domain.GroupParticipant {
	out := make([]domain.GroupParticipant, 0, len(all)-1)
	for _, p := range all {
		if p.XID != self {
			out = append(out, p)
		}
	}
	return out
}

func xidsOf(docs []domain.XIDDocument) []domain.XID {
	out := make([]domain.XID, len(docs))
	for i, d := range docs {
		out[i] = d.XID
	}
	return out
}

func xidsOf2(participants []domain.GroupParticipant) []domain.XID {
	out := make([]domain.XID, len(participants))
	for i, p := range participants {
		out[i] = p.XID
	}
	return out
}

func findXIDDocument(docs []domain.XIDDocument, xid domain.XID) (domain.XIDDocument, bool) {
	for _, d := range docs {
		if d.XID == xid {
			return d, true
		}
	}
	return domain.XIDDocument{}, false
}
