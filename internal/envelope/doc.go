// Package envelope implements the single GSTP wire format every xfrost
// message uses: a CBOR-encoded, Schnorr-signed body, sealed independently
// to each intended recipient so the key/value transport never sees
// plaintext (spec.md §4.3, §6). Sealing and signing delegate entirely to
// internal/crypto; this package only defines the wire shapes and the
// encode/decode state machine around them.
package envelope
