package app

import (
	domain "xfrost/internal/domain"
	"xfrost/internal/protocol/dkg"
	"xfrost/internal/protocol/signing"
)

// App is the fully wired set of engines a CLI command drives (spec.md §10).
type App struct {
	Registry domain.RegistryService
	DKG      *dkg.Engine
	Signing  *signing.Engine
}

func New(registry domain.RegistryService, dkgEngine *dkg.Engine, signingEngine *signing.Engine) *App {
	return &App{Registry: registry, DKG: dkgEngine, Signing: signingEngine}
}

// Build wires an App against the already-enrolled local owner identity.
// Commands that have not yet run "owner set" (e.g. owner-set itself) use
// Wire directly instead of calling Build.
func Build(w *Wire) (*App, error) {
	me, err := w.Registry.Owner()
	if err != nil {
		return nil, err
	}
	return New(w.Registry, w.DKGEngine(me), w.SigningEngine(me)), nil
}
