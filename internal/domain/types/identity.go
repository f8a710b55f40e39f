package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// XID is a 32-byte content-addressed participant identifier, derived from
// the SHA-256 digest of a document's inception public keys.
type XID [32]byte

// String renders the XID as a bare "xid:<hex>" URI, the form the registry
// keys participant entries and pending-request records by.
func (x XID) String() string { return "xid:" + hex.EncodeToString(x[:]) }

func (x XID) IsZero() bool { return x == XID{} }

// MarshalText renders the XID in its "xid:<hex>" form, letting it serve
// directly as a JSON object key (Registry.Participants is map[XID]XIDDocument).
func (x XID) MarshalText() ([]byte, error) { return []byte(x.String()), nil }

// UnmarshalText parses the "xid:<hex>" form produced by MarshalText.
func (x *XID) UnmarshalText(text []byte) error {
	s := string(text)
	const prefix = "xid:"
	if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
		s = s[len(prefix):]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("parse xid: %w", err)
	}
	if len(b) != len(x) {
		return fmt.Errorf("parse xid: want %d bytes, got %d", len(x), len(b))
	}
	copy(x[:], b)
	return nil
}

// Ed25519Public is an inception or operational signing public key.
type Ed25519Public [32]byte

// Ed25519Private is a signing private key in stdlib ed25519.PrivateKey layout.
type Ed25519Private [64]byte

// X25519Public is a key-encapsulation public key used to seal messages to a recipient.
type X25519Public [32]byte

// X25519Private is the matching key-encapsulation private key.
type X25519Private [32]byte

func (p Ed25519Public) Slice() []byte  { return p[:] }
func (k Ed25519Private) Slice() []byte { return k[:] }
func (p X25519Public) Slice() []byte   { return p[:] }
func (k X25519Private) Slice() []byte  { return k[:] }

// MarshalJSON renders the key as a hex string rather than a JSON array of
// byte values, matching the compact, human-diffable registry file format.
func (p Ed25519Public) MarshalJSON() ([]byte, error) { return marshalHexJSON(p[:]) }

// UnmarshalJSON parses the hex string produced by MarshalJSON.
func (p *Ed25519Public) UnmarshalJSON(data []byte) error { return unmarshalHexJSON(data, p[:]) }

func (k Ed25519Private) MarshalJSON() ([]byte, error)     { return marshalHexJSON(k[:]) }
func (k *Ed25519Private) UnmarshalJSON(data []byte) error { return unmarshalHexJSON(data, k[:]) }

func (p X25519Public) MarshalJSON() ([]byte, error)     { return marshalHexJSON(p[:]) }
func (p *X25519Public) UnmarshalJSON(data []byte) error { return unmarshalHexJSON(data, p[:]) }

func (k X25519Private) MarshalJSON() ([]byte, error)     { return marshalHexJSON(k[:]) }
func (k *X25519Private) UnmarshalJSON(data []byte) error { return unmarshalHexJSON(data, k[:]) }

func marshalHexJSON(b []byte) ([]byte, error) {
	return json.Marshal(hex.EncodeToString(b))
}

func unmarshalHexJSON(data []byte, dst []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parse key: %w", err)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("parse key: %w", err)
	}
	if len(b) != len(dst) {
		return fmt.Errorf("parse key: want %d bytes, got %d", len(dst), len(b))
	}
	copy(dst, b)
	return nil
}

// PublicKeys is the public-key pair an XID document binds to its XID:
// a signing key (authentication) and an encapsulation key (confidentiality).
type PublicKeys struct {
	SigningKey      Ed25519Public
	EncapsulationKey X25519Public
}

// PetName is a locally-chosen, case-sensitively unique nickname for a participant.
type PetName string

// XIDDocument binds an XID to its public keys, the raw signed envelope it
// was parsed from (so it can be re-serialized byte-for-byte, matching
// spec.md's "signed public XID document"), and optional metadata.
type XIDDocument struct {
	XID           XID
	Keys          PublicKeys
	SignedEnvelope []byte // canonical sealed/signed envelope bytes this was parsed from
	PetName       PetName `json:",omitempty"`

	// ListenAt is this participant's bootstrap rendezvous slot: the ARID a
	// first contact (a dkgGroupInvite) is posted to. Every later request in
	// the same group or session is instead addressed via the ARID the
	// participant's own prior response carried in its PeerContinuation, so
	// ListenAt is only ever consulted once per relationship.
	ListenAt ARID `json:",omitempty"`
}

// PrivateXIDDocument additionally holds the owner's private signing and
// decryption keys; it never leaves the local registry file.
type PrivateXIDDocument struct {
	XIDDocument
	SigningPrivateKey      Ed25519Private
	EncapsulationPrivateKey X25519Private
}
