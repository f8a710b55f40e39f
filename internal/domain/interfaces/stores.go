package interfaces

import domaintypes "xfrost/internal/domain/types"

// RegistryStore persists the owner's identity, known participants, group
// records, and routing bookkeeping (spec.md §4.1).
type RegistryStore interface {
	// Load returns the current registry, or a fresh empty one if no file exists yet.
	Load() (*domaintypes.Registry, error)
	// WithLock runs fn against a freshly-loaded registry under an exclusive
	// file lock, persisting the result if fn returns a nil error. This is
	// the only way callers mutate the registry, so every read-modify-write
	// is atomic with respect to other processes (spec.md §4.1/§5).
	WithLock(fn func(r *domaintypes.Registry) error) error
}

// GroupStateStore persists the per-group DKG artifacts of spec.md §4.2.
type GroupStateStore interface {
	SaveRound1Secret(group domaintypes.ARID, secret domaintypes.Round1Secret) error
	LoadRound1Secret(group domaintypes.ARID) (domaintypes.Round1Secret, error)

	SaveRound1Package(group domaintypes.ARID, pkg domaintypes.Round1Package) error
	LoadRound1Package(group domaintypes.ARID) (domaintypes.Round1Package, error)

	SaveCollectedRound1(group domaintypes.ARID, byIdentifier map[domaintypes.Identifier]domaintypes.Round1Package) error
	LoadCollectedRound1(group domaintypes.ARID) (map[domaintypes.Identifier]domaintypes.Round1Package, error)

	SaveRound2Secret(group domaintypes.ARID, secret domaintypes.Round2Secret) error
	LoadRound2Secret(group domaintypes.ARID) (domaintypes.Round2Secret, error)

	// SaveCollectedRound2 stores the flat (sender, recipient) -> package map
	// the coordinator pivots into per-recipient sets (spec.md §9).
	SaveCollectedRound2(group domaintypes.ARID, packages map[[2]domaintypes.Identifier]domaintypes.Round2Package) error
	LoadCollectedRound2(group domaintypes.ARID) (map[[2]domaintypes.Identifier]domaintypes.Round2Package, error)

	SaveKeyPackage(group domaintypes.ARID, kp domaintypes.KeyPackage, pkp domaintypes.PublicKeyPackage) error
	LoadKeyPackage(group domaintypes.ARID) (domaintypes.KeyPackage, domaintypes.PublicKeyPackage, error)

	SaveCollectedFinalize(group domaintypes.ARID, byIdentifier map[domaintypes.Identifier]domaintypes.PublicKeyPackage) error
	LoadCollectedFinalize(group domaintypes.ARID) (map[domaintypes.Identifier]domaintypes.PublicKeyPackage, error)
}

// SigningStateStore persists the per-group, per-session signing artifacts
// of spec.md §4.2.
type SigningStateStore interface {
	SaveSession(group, session domaintypes.ARID, rec domaintypes.SessionRecord) error
	LoadSession(group, session domaintypes.ARID) (domaintypes.SessionRecord, error)

	SaveCommitments(group, session domaintypes.ARID, byIdentifier map[domaintypes.Identifier]domaintypes.SigningCommitment) error
	LoadCommitments(group, session domaintypes.ARID) (map[domaintypes.Identifier]domaintypes.SigningCommitment, error)

	SaveShares(group, session domaintypes.ARID, byIdentifier map[domaintypes.Identifier]domaintypes.SignatureShare) error
	LoadShares(group, session domaintypes.ARID) (map[domaintypes.Identifier]domaintypes.SignatureShare, error)

	SaveFinal(group, session domaintypes.ARID, sig domaintypes.Signature) error
	LoadFinal(group, session domaintypes.ARID) (domaintypes.Signature, error)
}
