package dkg_test

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
	"xfrost/internal/registry"
	"xfrost/internal/router"
	"xfrost/internal/sessionstate"
	"xfrost/internal/transport"
)

// party bundles one simulated participant's engine and the bits a test
// needs to drive its side of the protocol.
type party struct {
	priv     domain.PrivateXIDDocument
	registry domain.RegistryService
	state    *sessionstate.Store
	engine   *dkg.Engine
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
	return &party{
		priv:     priv,
		registry: svc,
		state:    state,
		engine: &dkg.Engine{
			Me:        priv,
			Codec:     envelope.New(),
			Suite:     frostcrypto.New(n, threshold),
			KV:        kv,
			Collector: collector.New(),
			Registry:  svc,
			State:     state,
		},
	}
}

// crossEnroll makes every party in parties know every other party's public
// XID document, the out-of-band step spec.md §4.1 assumes has already
// happened before any group is invited.
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

// TestDKGThreeOfThree runs a full invite -> round1 -> round2 -> finalize
// flow for a 2-of-3 group entirely in memory and checks every party lands
// on the same verifying key.
func TestDKGThreeOfThree(t *testing.T) {
	kv := transport.NewMemory()
	const n, threshold = 3, 2

	alice := newParty(t, "alice", kv, n, threshold)
	bob := newParty(t, "bob", kv, n, threshold)
	carol := newParty(t, "carol", kv, n, threshold)
	crossEnroll(t, alice, bob, carol)

	ctx := context.Background()
	groupID, err := alice.engine.Invite(ctx, "test group", threshold, []domain.XIDDocument{
		bob.priv.XIDDocument, carol.priv.XIDDocument,
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	for _, p := range []*party{bob, carol} {
		req := decodeNextRequest(t, p, domain.FuncDkgGroupInvite)
		responseARID, params, err := p.engine.Accept(req)
		if err != nil {
			t.Fatalf("%s accept: %v", p.priv.PetName, err)
		}
		result, err := envelope.EncodeParams(params)
		if err != nil {
			t.Fatalf("encode accept result: %v", err)
		}
		coordinator, _ := findDocByXID(t, p, req.SenderXID)
		if err := p.engine.PostResponse(ctx, responseARID, result, coordinator); err != nil {
			t.Fatalf("%s post invite response: %v", p.priv.PetName, err)
		}
	}

	if err := alice.engine.CollectRound1(ctx, groupID); err != nil {
		t.Fatalf("collect round1: %v", err)
	}

	for _, p := range []*party{bob, carol} {
		req := decodeNextRequest(t, p, domain.FuncDkgRound2)
		responseARID, params, err := p.engine.RespondRound2(req)
		if err != nil {
			t.Fatalf("%s round2: %v", p.priv.PetName, err)
		}
		result, err := envelope.EncodeParams(params)
		if err != nil {
			t.Fatalf("encode round2 result: %v", err)
		}
		coordinator, _ := findDocByXID(t, p, req.SenderXID)
		if err := p.engine.PostResponse(ctx, responseARID, result, coordinator); err != nil {
			t.Fatalf("%s post round2 response: %v", p.priv.PetName, err)
		}
	}

	if err := alice.engine.CollectRound2(ctx, groupID); err != nil {
		t.Fatalf("collect round2: %v", err)
	}

	for _, p := range []*party{bob, carol} {
		req := decodeNextRequest(t, p, domain.FuncDkgFinalize)
		responseARID, params, err := p.engine.RespondFinalize(req)
		if err != nil {
			t.Fatalf("%s finalize: %v", p.priv.PetName, err)
		}
		result, err := envelope.EncodeParams(params)
		if err != nil {
			t.Fatalf("encode finalize result: %v", err)
		}
		coordinator, _ := findDocByXID(t, p, req.SenderXID)
		if err := p.engine.PostResponse(ctx, responseARID, result, coordinator); err != nil {
			t.Fatalf("%s post finalize response: %v", p.priv.PetName, err)
		}
	}

	pkp, err := alice.engine.CollectFinalize(ctx, groupID)
	if err != nil {
		t.Fatalf("collect finalize: %v", err)
	}
	if len(pkp) == 0 {
		t.Fatal("expected a non-empty public key package")
	}

	aliceGroup, ok, err := alice.registry.Group(groupID)
	if err != nil || !ok {
		t.Fatalf("alice group lookup: ok=%v err=%v", ok, err)
	}
	if aliceGroup.Status != domain.GroupFinalized {
		t.Fatalf("alice group status = %s, want finalized", aliceGroup.Status)
	}
	bobGroup, ok, err := bob.registry.Group(groupID)
	if err != nil || !ok {
		t.Fatalf("bob group lookup: ok=%v err=%v", ok, err)
	}
	if bobGroup.VerifyingKey != aliceGroup.VerifyingKey {
		t.Fatalf("verifying keys diverge: alice=%x bob=%x", aliceGroup.VerifyingKey, bobGroup.VerifyingKey)
	}
	carolGroup, ok, err := carol.registry.Group(groupID)
	if err != nil || !ok {
		t.Fatalf("carol group lookup: ok=%v err=%v", ok, err)
	}
	if carolGroup.VerifyingKey != aliceGroup.VerifyingKey {
		t.Fatalf("verifying keys diverge: alice=%x carol=%x", aliceGroup.VerifyingKey, carolGroup.VerifyingKey)
	}
}

// TestDKGMissingParticipantAborts checks that a non-responsive invitee
// aborts the group instead of hanging or silently proceeding without it.
func TestDKGMissingParticipantAborts(t *testing.T) {
	kv := transport.NewMemory()
	const n, threshold = 2, 2

	alice := newParty(t, "alice", kv, n, threshold)
	bob := newParty(t, "bob", kv, n, threshold)
	crossEnroll(t, alice, bob)

	ctx := context.Background()
	groupID, err := alice.engine.Invite(ctx, "test group", threshold, []domain.XIDDocument{bob.priv.XIDDocument})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	shortCtx, cancel := context.WithTimeout(ctx, 0)
	defer cancel()
	if err := alice.engine.CollectRound1(shortCtx, groupID); err == nil {
		t.Fatal("expected collect round1 to fail when bob never responds")
	}

	rec, ok, err := alice.registry.Group(groupID)
	if err != nil || !ok {
		t.Fatalf("group lookup: ok=%v err=%v", ok, err)
	}
	if rec.Status != domain.GroupAborted {
		t.Fatalf("status = %s, want aborted", rec.Status)
	}
}

// decodeNextRequest fetches and decodes the one pending request addressed
// to p's current rendezvous slot, asserting it carries the expected
// function name.
func decodeNextRequest(t *testing.T, p *party, want domain.Function) domain.Request {
	t.Helper()
	arid, ok, err := p.registry.ListeningAt()
	if err != nil || !ok {
		t.Fatalf("%s has no rendezvous slot: ok=%v err=%v", p.priv.PetName, ok, err)
	}
	env, err := p.engine.KV.Get(context.Background(), arid, time.Time{})
	if err != nil {
		t.Fatalf("%s fetch request: %v", p.priv.PetName, err)
	}
	senders, err := allSenders(t, p)
	if err != nil {
		t.Fatalf("%s known senders: %v", p.priv.PetName, err)
	}
	req, err := p.engine.Codec.DecodeRequest(env, p.priv, senders)
	if err != nil {
		t.Fatalf("%s decode request: %v", p.priv.PetName, err)
	}
	if req.Function != want {
		t.Fatalf("%s got function %q, want %q", p.priv.PetName, req.Function, want)
	}
	return req
}

func allSenders(t *testing.T, p *party) (map[domain.XID]domain.XIDDocument, error) {
	t.Helper()
	docs, err := p.registry.ListParticipants()
	if err != nil {
		return nil, err
	}
	out := make(map[domain.XID]domain.XIDDocument, len(docs)+1)
	for _, d := range docs {
		out[d.XID] = d
	}
	out[p.priv.XID] = p.priv.XIDDocument
	return out, nil
}

func findDocByXID(t *testing.T, p *party, xid domain.XID) (domain.XIDDocument, bool) {
	t.Helper()
	docs, err := p.registry.ListParticipants()
	if err != nil {
		t.Fatalf("%s list participants: %v", p.priv.PetName, err)
	}
	for _, d := range docs {
		if d.XID == xid {
			return d, true
		}
	}
	return domain.XIDDocument{}, false
}
