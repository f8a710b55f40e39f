// Package signing drives one FROST-Ed25519 threshold signing session
// across the commit / share / finalize transitions of spec.md §4.6, using
// the same envelope codec, router, session state store, registry service,
// and parallel collector as the dkg package. No curve arithmetic lives
// here: every cryptographic step is a call through domain.FrostSuite.
package signing
