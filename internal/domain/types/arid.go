package types

import (
	"encoding/hex"
	"fmt"
)

// ARID is a 32-byte apparently-random identifier: a single-write key into
// the key/value transport, and the currency the router hands out for every
// "where do I send/collect my next message" question.
type ARID [32]byte

func (a ARID) String() string { return hex.EncodeToString(a[:]) }

func (a ARID) IsZero() bool { return a == ARID{} }

// MarshalText renders the ARID as hex, letting it serve directly as a JSON
// object key (map[ARID]... fields in Registry and the state stores).
func (a ARID) MarshalText() ([]byte, error) { return []byte(hex.EncodeToString(a[:])), nil }

// UnmarshalText parses the hex form produced by MarshalText.
func (a *ARID) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("parse arid: %w", err)
	}
	if len(b) != len(a) {
		return fmt.Errorf("parse arid: want %d bytes, got %d", len(a), len(b))
	}
	copy(a[:], b)
	return nil
}
