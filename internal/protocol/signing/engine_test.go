package signing_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"xfrost/internal/collector"
	"xfrost/internal/crypto"
	domain "xfrost/internal/domain"
	"xfrost/internal/envelope"
	"xfrost/internal/frostcrypto"
	"xfrost/internal/protocol/dkg"
	"xfrost/internal/protocol/signing"
	"xfrost/internal/registry"
	"xfrost/internal/router"
	"xfrost/internal/sessionstate"
	"xfrost/internal/transport"
)

// party bundles one simulated participant's DKG and signing engines,
// sharing a single registry and session store the way one xfrost process
// would (spec.md §4.2's group/session artifacts are keyed the same way
// regardless of which protocol produced them).
type party struct {
	priv     domain.PrivateXIDDocument
	registry domain.RegistryService
	state    *sessionstate.Store
	dkg      *dkg.Engine
	signing  *signing.Engine
}

func newParty(t *testing.T, pet domain.PetName, kv domain.KvStore, n, threshold int) *party {
	t.Helper()
	priv, _, err := crypto.NewPrivateXIDDocument(pet)
	if err != nil {
		t.Fatalf("new identity: %v", err)
	}
	store := registry.New(filepath.Join(t.TempDir(), "registry.json"))
	svc := registry.NewService(store)
	if err := svc.SetOwner(priv); err != nil {
		t.Fatalf("set owner: %v", err)
	}
	listenAt, err := router.NewARID()
	if err != nil {
		t.Fatalf("listen arid: %v", err)
	}
	if err := svc.SetListeningAt(listenAt); err != nil {
		t.Fatalf("set listening at: %v", err)
	}
	priv.ListenAt = listenAt

	state := sessionstate.New(filepath.Join(t.TempDir(), "sessions"))
	suite := frostcrypto.New(n, threshold)
	return &party{
		priv:     priv,
		registry: svc,
		state:    state,
		dkg: &dkg.Engine{
			Me: priv, Codec: envelope.New(), Suite: suite, KV: kv,
			Collector: collector.New(), Registry: svc, State: state,
		},
		signing: &signing.Engine{
			Me: priv, Codec: envelope.New(), Suite: suite, KV: kv,
			Collector: collector.New(), Registry: svc, State: state, GroupState: state,
		},
	}
}

func crossEnroll(t *testing.T, parties ...*party) {
	t.Helper()
	for _, p := range parties {
		for _, other := range parties {
			if other == p {
				continue
			}
			doc := other.priv.XIDDocument
			if err := p.registry.AddParticipant(doc, doc.PetName); err != nil {
				t.Fatalf("%s enroll %s: %v", p.priv.PetName, other.priv.PetName, err)
			}
		}
	}
}

func allSenders(t *testing.T, p *party) map[domain.XID]domain.XIDDocument {
	t.Helper()
	docs, err := p.registry.ListParticipants()
	if err != nil {
		t.Fatalf("%s list participants: %v", p.priv.PetName, err)
	}
	out := make(map[domain.XID]domain.XIDDocument, len(docs)+1)
	for _, d := range docs {
		out[d.XID] = d
	}
	out[p.priv.XID] = p.priv.XIDDocument
	return out
}

func findDocByXID(t *testing.T, p *party, xid domain.XID) domain.XIDDocument {
	t.Helper()
	docs, err := p.registry.ListParticipants()
	if err != nil {
		t.Fatalf("%s list participants: %v", p.priv.PetName, err)
	}
	for _, d := range docs {
		if d.XID == xid {
			return d
		}
	}
	t.Fatalf("%s: unknown xid document %s", p.priv.PetName, xid)
	return domain.XIDDocument{}
}

func nextRequest(t *testing.T, p *party, want domain.Function) domain.Request {
	t.Helper()
	arid, ok, err := p.registry.ListeningAt()
	if err != nil || !ok {
		t.Fatalf("%s has no rendezvous slot: ok=%v err=%v", p.priv.PetName, ok, err)
	}
	env, err := p.dkg.KV.Get(context.Background(), arid, time.Time{})
	if err != nil {
		t.Fatalf("%s fetch request: %v", p.priv.PetName, err)
	}
	req, err := p.dkg.Codec.DecodeRequest(env, p.priv, allSenders(t, p))
	if err != nil {
		t.Fatalf("%s decode request: %v", p.priv.PetName, err)
	}
	if req.Function != want {
		t.Fatalf("%s got function %q, want %q", p.priv.PetName, req.Function, want)
	}
	return req
}

// runDKG drives a full DKG round for coordinator+others to a finalized
// group and returns the group ARID, deferring to the dkg package's own
// test for per-phase assertions.
func runDKG(t *testing.T, ctx context.Context, coordinator *party, others []*party, threshold int) domain.ARID {
	t.Helper()
	docs := make([]domain.XIDDocument, len(others))
	for i, o := range others {
		docs[i] = o.priv.XIDDocument
	}
	groupID, err := coordinator.dkg.Invite(ctx, "signing test group", threshold, docs)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	for _, p := range others {
		req := nextRequest(t, p, domain.FuncDkgGroupInvite)
		responseARID, params, err := p.dkg.Accept(req)
		if err != nil {
			t.Fatalf("%s accept: %v", p.priv.PetName, err)
		}
		result, _ := envelope.EncodeParams(params)
		if err := p.dkg.PostResponse(ctx, responseARID, result, findDocByXID(t, p, req.SenderXID)); err != nil {
			t.Fatalf("%s post invite response: %v", p.priv.PetName, err)
		}
	}
	if err := coordinator.dkg.CollectRound1(ctx, groupID); err != nil {
		t.Fatalf("collect round1: %v", err)
	}
	for _, p := range others {
		req := nextRequest(t, p, domain.FuncDkgRound2)
		responseARID, params, err := p.dkg.RespondRound2(req)
		if err != nil {
			t.Fatalf("%s round2: %v", p.priv.PetName, err)
		}
		result, _ := envelope.EncodeParams(params)
		if err := p.dkg.PostResponse(ctx, responseARID, result, findDocByXID(t, p, req.SenderXID)); err != nil {
			t.Fatalf("%s post round2 response: %v", p.priv.PetName, err)
		}
	}
	if err := coordinator.dkg.CollectRound2(ctx, groupID); err != nil {
		t.Fatalf("collect round2: %v", err)
	}
	for _, p := range others {
		req := nextRequest(t, p, domain.FuncDkgFinalize)
		responseARID, params, err := p.dkg.RespondFinalize(req)
		if err != nil {
			t.Fatalf("%s finalize: %v", p.priv.PetName, err)
		}
		result, _ := envelope.EncodeParams(params)
		if err := p.dkg.PostResponse(ctx, responseARID, result, findDocByXID(t, p, req.SenderXID)); err != nil {
			t.Fatalf("%s post finalize response: %v", p.priv.PetName, err)
		}
	}
	if _, err := coordinator.dkg.CollectFinalize(ctx, groupID); err != nil {
		t.Fatalf("collect finalize: %v", err)
	}
	return groupID
}

// TestSigningTwoOfThree runs a full DKG followed by a signing session
// where only two of the three signers (the minimum threshold) participate.
func TestSigningTwoOfThree(t *testing.T) {
	kv := transport.NewMemory()
	const n, threshold = 3, 2

	alice := newParty(t, "alice", kv, n, threshold)
	bob := newParty(t, "bob", kv, n, threshold)
	carol := newParty(t, "carol", kv, n, threshold)
	crossEnroll(t, alice, bob, carol)

	ctx := context.Background()
	groupID := runDKG(t, ctx, alice, []*party{bob, carol}, threshold)

	message := []byte("transfer 10 coins to carol")
	sessionID, err := alice.signing.Start(ctx, groupID, message)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	for _, p := range []*party{bob, carol} {
		req := nextRequest(t, p, domain.FuncSignCommit)
		responseARID, params, err := p.signing.Receive(req)
		if err != nil {
			t.Fatalf("%s receive: %v", p.priv.PetName, err)
		}
		result, _ := envelope.EncodeParams(params)
		if err := p.signing.PostResponse(ctx, responseARID, result, findDocByXID(t, p, req.SenderXID)); err != nil {
			t.Fatalf("%s post commit response: %v", p.priv.PetName, err)
		}
	}

	if err := alice.signing.CollectCommits(ctx, groupID, sessionID); err != nil {
		t.Fatalf("collect commits: %v", err)
	}

	for _, p := range []*party{bob, carol} {
		req := nextRequest(t, p, domain.FuncSignShare)
		responseARID, params, err := p.signing.RespondShare(req)
		if err != nil {
			t.Fatalf("%s respond share: %v", p.priv.PetName, err)
		}
		result, _ := envelope.EncodeParams(params)
		if err := p.signing.PostResponse(ctx, responseARID, result, findDocByXID(t, p, req.SenderXID)); err != nil {
			t.Fatalf("%s post share response: %v", p.priv.PetName, err)
		}
	}

	sig, err := alice.signing.CollectShares(ctx, groupID, sessionID)
	if err != nil {
		t.Fatalf("collect shares: %v", err)
	}
	if len(sig) == 0 {
		t.Fatal("expected a non-empty signature")
	}

	for _, p := range []*party{bob, carol} {
		req := nextRequest(t, p, domain.FuncSignFinalize)
		if _, err := p.signing.ReceiveFinalize(req); err != nil {
			t.Fatalf("%s receive finalize: %v", p.priv.PetName, err)
		}
	}

	for _, p := range []*party{alice, bob, carol} {
		rec, err := p.state.LoadSession(groupID, sessionID)
		if err != nil {
			t.Fatalf("%s load session: %v", p.priv.PetName, err)
		}
		if rec.Status != domain.SessionAttached {
			t.Fatalf("%s session status = %s, want attached", p.priv.PetName, rec.Status)
		}
	}
}

// TestSigningBelowThresholdAborts checks that a session with fewer than
// MinSigners commitments aborts rather than producing a signature.
func TestSigningBelowThresholdAborts(t *testing.T) {
	kv := transport.NewMemory()
	const n, threshold = 3, 2

	alice := newParty(t, "alice", kv, n, threshold)
	bob := newParty(t, "bob", kv, n, threshold)
	carol := newParty(t, "carol", kv, n, threshold)
	crossEnroll(t, alice, bob, carol)

	ctx := context.Background()
	groupID := runDKG(t, ctx, alice, []*party{bob, carol}, threshold)

	sessionID, err := alice.signing.Start(ctx, groupID, []byte("lone signer test"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Only bob commits; carol never responds.
	req := nextRequest(t, bob, domain.FuncSignCommit)
	responseARID, params, err := bob.signing.Receive(req)
	if err != nil {
		t.Fatalf("bob receive: %v", err)
	}
	result, _ := envelope.EncodeParams(params)
	if err := bob.signing.PostResponse(ctx, responseARID, result, findDocByXID(t, bob, req.SenderXID)); err != nil {
		t.Fatalf("bob post commit response: %v", err)
	}

	shortCtx, cancel := context.WithTimeout(ctx, 0)
	defer cancel()
	if err := alice.signing.CollectCommits(shortCtx, groupID, sessionID); err == nil {
		t.Fatal("expected collect commits to fail with only one of two required signers")
	}
}
