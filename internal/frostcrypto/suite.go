package frostcrypto

import (
	"fmt"

	"github.com/bytemare/dkg"
	"github.com/bytemare/frost"

	domain "xfrost/internal/domain"
)

// Suite is the bytemare-backed implementation of domain.FrostSuite, bound
// to Ed25519 as spec.md §1 requires ("FROST-Ed25519 ... is modeled as an
// opaque external dependency: this repository never reimplements scalar or
// point arithmetic").
type Suite struct {
	ciphersuite frost.Ciphersuite
	maxSigners  uint16
	threshold   uint16
}

var _ domain.FrostSuite = (*Suite)(nil)

// New returns a Suite configured for an n-of-m Ed25519 FROST group.
func New(maxSigners, threshold int) *Suite {
	return &Suite{
		ciphersuite: frost.Ed25519,
		maxSigners:  uint16(maxSigners),
		threshold:   uint16(threshold),
	}
}

func identifierOf(id domain.Identifier) uint16 { return uint16(id) }

func wrapf(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("frostcrypto: %s: %w", op, err)
}
