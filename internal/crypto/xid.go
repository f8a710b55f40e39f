package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/curve25519"

	domain "xfrost/internal/domain"
)

// signedDocument is the canonical on-wire shape of a "signed public XID
// document" or "private XID document": a body plus the inception
// signature over that body. XIDDocument.SignedEnvelope holds the bytes of
// this structure, so a verified document can be re-serialized unchanged.
type signedDocument struct {
	SigningKey       domain.Ed25519Public
	EncapsulationKey domain.X25519Public
	PetName          domain.PetName `json:",omitempty"`
	Signature        []byte

	// Private is only present in a private XID document; VerifySignedDocument
	// rejects any attempt to feed one where only a public document is expected.
	Private *privateMaterial `json:",omitempty"`
}

type privateMaterial struct {
	SigningPrivateKey      domain.Ed25519Private
	EncapsulationPrivateKey domain.X25519Private
}

// XIDOf derives a participant's content-addressed identity from its
// inception public keys (spec.md §3).
func XIDOf(keys domain.PublicKeys) domain.XID {
	h := sha256.New()
	h.Write(keys.SigningKey[:])
	h.Write(keys.EncapsulationKey[:])
	var xid domain.XID
	copy(xid[:], h.Sum(nil))
	return xid
}

func signingMessage(signingKey domain.Ed25519Public, encapKey domain.X25519Public, pet domain.PetName) []byte {
	return []byte(fmt.Sprintf("xid-inception:%x:%x:%s", signingKey[:], encapKey[:], pet))
}

// NewPrivateXIDDocument generates a fresh inception key pair and returns a
// self-signed private XID document plus its canonical signed bytes.
func NewPrivateXIDDocument(pet domain.PetName) (domain.PrivateXIDDocument, []byte, error) {
	edPub, edPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return domain.PrivateXIDDocument{}, nil, err
	}
	var xPriv domain.X25519Private
	if _, err := rand.Read(xPriv[:]); err != nil {
		return domain.PrivateXIDDocument{}, nil, err
	}
	xPriv[0] &= 248
	xPriv[31] &= 127
	xPriv[31] |= 64
	var xPub domain.X25519Public
	pub, err := curve25519.X25519(xPriv[:], curve25519.Basepoint)
	if err != nil {
		return domain.PrivateXIDDocument{}, nil, err
	}
	copy(xPub[:], pub)

	var signingPub domain.Ed25519Public
	copy(signingPub[:], edPub)
	var signingPriv domain.Ed25519Private
	copy(signingPriv[:], edPriv)

	keys := domain.PublicKeys{SigningKey: signingPub, EncapsulationKey: xPub}
	sig := ed25519.Sign(edPriv, signingMessage(signingPub, xPub, pet))

	doc := signedDocument{
		SigningKey:       signingPub,
		EncapsulationKey: xPub,
		PetName:          pet,
		Signature:        sig,
		Private: &privateMaterial{
			SigningPrivateKey:      signingPriv,
			EncapsulationPrivateKey: xPriv,
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return domain.PrivateXIDDocument{}, nil, err
	}

	priv := domain.PrivateXIDDocument{
		XIDDocument: domain.XIDDocument{
			XID:           XIDOf(keys),
			Keys:          keys,
			SignedEnvelope: raw,
			PetName:       pet,
		},
		SigningPrivateKey:      signingPriv,
		EncapsulationPrivateKey: xPriv,
	}
	return priv, raw, nil
}

// ParseSignedXIDDocument verifies the inception signature over raw and
// returns the public XID document it describes. It refuses documents that
// embed private key material, since those must go through
// ParsePrivateXIDDocument instead (spec.md §4.1 owner-set vs. participant-add).
func ParseSignedXIDDocument(raw []byte) (domain.XIDDocument, error) {
	var doc signedDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.XIDDocument{}, fmt.Errorf("parse xid document: %w", err)
	}
	if err := verifyInception(doc); err != nil {
		return domain.XIDDocument{}, err
	}
	keys := domain.PublicKeys{SigningKey: doc.SigningKey, EncapsulationKey: doc.EncapsulationKey}
	return domain.XIDDocument{
		XID:           XIDOf(keys),
		Keys:          keys,
		SignedEnvelope: raw,
		PetName:       doc.PetName,
	}, nil
}

// ParsePrivateXIDDocument verifies the inception signature over raw and
// requires that it carries private key material (an owner's document).
func ParsePrivateXIDDocument(raw []byte) (domain.PrivateXIDDocument, error) {
	var doc signedDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.PrivateXIDDocument{}, fmt.Errorf("parse private xid document: %w", err)
	}
	if err := verifyInception(doc); err != nil {
		return domain.PrivateXIDDocument{}, err
	}
	if doc.Private == nil {
		return domain.PrivateXIDDocument{}, fmt.Errorf("xid document must include private keys")
	}
	keys := domain.PublicKeys{SigningKey: doc.SigningKey, EncapsulationKey: doc.EncapsulationKey}
	return domain.PrivateXIDDocument{
		XIDDocument: domain.XIDDocument{
			XID:           XIDOf(keys),
			Keys:          keys,
			SignedEnvelope: raw,
			PetName:       doc.PetName,
		},
		SigningPrivateKey:      doc.Private.SigningPrivateKey,
		EncapsulationPrivateKey: doc.Private.EncapsulationPrivateKey,
	}, nil
}

// ExportPublic strips any private key material from a private XID
// document's signed envelope, producing the bytes that are safe to hand
// to a counterparty for "registry participant-add" (the inception
// signature remains valid since it was computed over the public fields
// only). Exporting priv.SignedEnvelope directly would leak its private keys.
func ExportPublic(priv domain.PrivateXIDDocument) ([]byte, error) {
	var doc signedDocument
	if err := json.Unmarshal(priv.SignedEnvelope, &doc); err != nil {
		return nil, fmt.Errorf("export public xid document: %w", err)
	}
	doc.Private = nil
	return json.Marshal(doc)
}

func verifyInception(doc signedDocument) error {
	msg := signingMessage(doc.SigningKey, doc.EncapsulationKey, doc.PetName)
	if !ed25519.Verify(doc.SigningKey[:], msg, doc.Signature) {
		return fmt.Errorf("inception signature verification failed")
	}
	return nil
}
