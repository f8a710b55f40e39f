// Package frostcrypto adapts the github.com/bytemare/dkg and
// github.com/bytemare/frost libraries to domain.FrostSuite, the opaque
// three-round DKG plus two-round signing interface the protocol engines in
// internal/protocol/dkg and internal/protocol/signing drive. No curve
// arithmetic lives in this repository: every cryptographic operation here
// is a direct call into the bytemare stack (ecc, secret-sharing/keys, dkg,
// frost), serialized to and from the opaque byte blobs domain/types/frost.go
// declares.
package frostcrypto
