package crypto

import "crypto/sha256"

// Digest256 is the SHA-256 subject hash a signing session targets: the
// engine never hands the FROST suite an arbitrary-length message, only
// this fixed digest (spec.md §4.6's "targetDigest").
func Digest256(message []byte) [32]byte {
	return sha256.Sum256(message)
}
