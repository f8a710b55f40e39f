// Package dkg drives FROST-Ed25519 distributed key generation across the
// invite / round1 / round2 / finalize transitions of spec.md §4.5, using
// the envelope codec, router, session state store, registry service, and
// parallel collector as its only collaborators. No curve arithmetic lives
// here: every cryptographic step is a call through domain.FrostSuite.
package dkg
