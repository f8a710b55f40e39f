// Package crypto binds the XID identity and sealed-message primitives
// spec.md §1 treats as external collaborators: inception key generation and
// verification for XID documents, Schnorr (Ed25519) signing of envelope
// bodies, and per-recipient sealed-message encryption via X25519 ECDH,
// HKDF-SHA256, and ChaCha20-Poly1305.
package crypto
