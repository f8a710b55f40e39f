package router

import (
	"crypto/rand"
	"fmt"

	domain "xfrost/internal/domain"
)

// NewARID samples a fresh 32-byte apparently-random identifier with
// cryptographic randomness, the only way an ARID is ever produced
// (spec.md §4.4's allocation rule).
func NewARID() (domain.ARID, error) {
	var a domain.ARID
	if _, err := rand.Read(a[:]); err != nil {
		return domain.ARID{}, fmt.Errorf("router: sample arid: %w", err)
	}
	return a, nil
}

// MustNewARID panics if randomness sampling fails; reserved for call sites
// that cannot meaningfully continue without an ARID and already run inside
// a recover()-guarded boundary (none currently do; prefer NewARID).
func MustNewARID() domain.ARID {
	a, err := NewARID()
	if err != nil {
		panic(err)
	}
	return a
}
