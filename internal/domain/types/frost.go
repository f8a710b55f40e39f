package types

// Identifier is a participant's FROST scalar identifier: 1-based rank of
// its XID bytes among the group's participants, ascending (spec.md §4.5).
type Identifier uint16

// The FROST artifacts below are opaque to the protocol engine: each is
// whatever byte slice the frostcrypto.Suite implementation produced, and
// the engine only ever stores, forwards, or hands them back to the suite.

type (
	Round1Secret     []byte
	Round1Package    []byte
	Round2Secret     []byte
	Round2Package    []byte
	KeyPackage       []byte
	PublicKeyPackage []byte
	SigningNonces    []byte
	SigningCommitment []byte
	SignatureShare   []byte
	Signature        []byte
)

// VerifyingKey is the group's aggregated Ed25519 public key, once DKG finalizes.
type VerifyingKey [32]byte
