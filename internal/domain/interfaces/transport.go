package interfaces

import (
	"context"
	"time"

	domaintypes "xfrost/internal/domain/types"
)

// KvStore is the two-method transport adapter spec.md §6 requires: a
// single-write key/value slot keyed by ARID. Implementations MUST refuse a
// second Put to the same ARID.
type KvStore interface {
	Put(ctx context.Context, arid domaintypes.ARID, envelope []byte) error
	// Get returns (nil, nil) if deadline elapses with nothing posted.
	Get(ctx context.Context, arid domaintypes.ARID, deadline time.Time) ([]byte, error)
}

// FrostSuite is the opaque FROST-Ed25519 primitive binding: three DKG calls
// and three signing calls, exactly as spec.md §1/§4.5/§4.6 name them. No
// curve arithmetic lives above this interface.
type FrostSuite interface {
	// Part1 starts DKG for identifier i among n participants with threshold m.
	Part1(i domaintypes.Identifier, n, m int) (domaintypes.Round1Secret, domaintypes.Round1Package, error)
	// Part2 consumes every other participant's round1 package.
	Part2(secret domaintypes.Round1Secret, round1 map[domaintypes.Identifier]domaintypes.Round1Package) (domaintypes.Round2Secret, map[domaintypes.Identifier]domaintypes.Round2Package, error)
	// Part3 consumes every other participant's round1 package and the
	// round2 packages addressed to this identifier, producing the
	// participant's key share and the shared public key package.
	Part3(secret domaintypes.Round2Secret, round1 map[domaintypes.Identifier]domaintypes.Round1Package, round2ToMe map[domaintypes.Identifier]domaintypes.Round2Package) (domaintypes.KeyPackage, domaintypes.PublicKeyPackage, error)

	// SignRound1 produces a signer's single-use nonces and commitment.
	SignRound1(kp domaintypes.KeyPackage) (domaintypes.SigningNonces, domaintypes.SigningCommitment, error)
	// SignRound2 produces a signer's signature share over digest, given the
	// full commitment set.
	SignRound2(nonces domaintypes.SigningNonces, kp domaintypes.KeyPackage, digest [32]byte, commitments map[domaintypes.Identifier]domaintypes.SigningCommitment) (domaintypes.SignatureShare, error)
	// Aggregate combines signature shares into the final signature and
	// verifies it against pkp and digest before returning.
	Aggregate(pkp domaintypes.PublicKeyPackage, digest [32]byte, commitments map[domaintypes.Identifier]domaintypes.SigningCommitment, shares map[domaintypes.Identifier]domaintypes.SignatureShare) (domaintypes.Signature, error)
	// Verify checks a standalone signature against a verifying key and digest.
	Verify(vk domaintypes.VerifyingKey, digest [32]byte, sig domaintypes.Signature) error

	// VerifyingKeyOf extracts the group's fixed-size verifying key from a
	// public key package, for callers that need to persist or compare it
	// independent of the opaque package blob (e.g. GroupRecord.VerifyingKey).
	VerifyingKeyOf(pkp domaintypes.PublicKeyPackage) (domaintypes.VerifyingKey, error)
}
