package crypto

import (
	"crypto/ed25519"
	"fmt"

	domain "xfrost/internal/domain"
)

// SignBody signs the canonical bytes of an envelope body with the sender's
// inception signing key, the same Schnorr-over-Ed25519 step every GSTP
// request/response goes through before it is sealed (spec.md §6).
func SignBody(priv domain.Ed25519Private, body []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(priv.Slice()), body)
}

// VerifyBody checks a body signature against the claimed sender's inception
// signing key. Callers resolve pub from the registry before trusting sig.
func VerifyBody(pub domain.Ed25519Public, body, sig []byte) error {
	if !ed25519.Verify(pub.Slice(), body, sig) {
		return fmt.Errorf("envelope signature verification failed")
	}
	return nil
}
