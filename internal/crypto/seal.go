package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	domain "xfrost/internal/domain"
)

const sealInfo = "xfrost-sealed-message-v1"

// SealedMessage is the per-recipient ciphertext a GSTP envelope carries for
// one entry of its Recipients list: an ephemeral X25519 public key plus the
// ChaCha20-Poly1305 sealed body, so only the holder of the matching
// encapsulation private key can recover the plaintext (spec.md §6).
type SealedMessage struct {
	EphemeralPublicKey domain.X25519Public
	Nonce              [chacha20poly1305.NonceSize]byte
	Ciphertext         []byte
}

// SealTo encrypts plaintext to a single recipient's encapsulation public
// key, generating a fresh ephemeral key pair so repeated calls to the same
// recipient never reuse a shared secret.
func SealTo(recipientPub domain.X25519Public, plaintext []byte) (SealedMessage, error) {
	var ephPriv domain.X25519Private
	if _, err := rand.Read(ephPriv[:]); err != nil {
		return SealedMessage{}, fmt.Errorf("seal: generate ephemeral key: %w", err)
	}
	ephPriv[0] &= 248
	ephPriv[31] &= 127
	ephPriv[31] |= 64

	ephPubRaw, err := curve25519.X25519(ephPriv.Slice(), curve25519.Basepoint)
	if err != nil {
		return SealedMessage{}, fmt.Errorf("seal: derive ephemeral public key: %w", err)
	}
	var ephPub domain.X25519Public
	copy(ephPub[:], ephPubRaw)

	sharedSecret, err := dh(ephPriv, recipientPub)
	if err != nil {
		return SealedMessage{}, fmt.Errorf("seal: ecdh: %w", err)
	}

	key, err := deriveKey(sharedSecret, ephPub, recipientPub)
	if err != nil {
		return SealedMessage{}, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return SealedMessage{}, fmt.Errorf("seal: init aead: %w", err)
	}
	var nonce [chacha20poly1305.NonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return SealedMessage{}, fmt.Errorf("seal: generate nonce: %w", err)
	}
	ct := aead.Seal(nil, nonce[:], plaintext, ephPub[:])

	return SealedMessage{EphemeralPublicKey: ephPub, Nonce: nonce, Ciphertext: ct}, nil
}

// OpenSealed recovers the plaintext a SealedMessage addressed to
// recipientPriv's matching public key.
func OpenSealed(recipientPriv domain.X25519Private, sealed SealedMessage) ([]byte, error) {
	sharedSecret, err := dh(recipientPriv, sealed.EphemeralPublicKey)
	if err != nil {
		return nil, fmt.Errorf("open sealed: ecdh: %w", err)
	}
	recipientPubRaw, err := curve25519.X25519(recipientPriv.Slice(), curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("open sealed: derive recipient public key: %w", err)
	}
	var recipientPub domain.X25519Public
	copy(recipientPub[:], recipientPubRaw)

	key, err := deriveKey(sharedSecret, sealed.EphemeralPublicKey, recipientPub)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("open sealed: init aead: %w", err)
	}
	pt, err := aead.Open(nil, sealed.Nonce[:], sealed.Ciphertext, sealed.EphemeralPublicKey[:])
	if err != nil {
		return nil, fmt.Errorf("open sealed: authentication failed")
	}
	return pt, nil
}

func dh(priv domain.X25519Private, pub domain.X25519Public) ([32]byte, error) {
	var out [32]byte
	res, err := curve25519.X25519(priv.Slice(), pub.Slice())
	if err != nil {
		return out, err
	}
	copy(out[:], res)
	return out, nil
}

func deriveKey(sharedSecret [32]byte, ephPub, recipientPub domain.X25519Public) ([]byte, error) {
	salt := make([]byte, 0, 64)
	salt = append(salt, ephPub[:]...)
	salt = append(salt, recipientPub[:]...)
	r := hkdf.New(sha256.New, sharedSecret[:], salt, []byte(sealInfo))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}
