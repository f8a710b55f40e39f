package app

import (
	"net/http"
	"path/filepath"

	domain "xfrost/internal/domain"
	"xfrost/internal/collector"
	"xfrost/internal/envelope"
	"xfrost/internal/frostcrypto"
	"xfrost/internal/protocol/dkg"
	"xfrost/internal/protocol/signing"
	"xfrost/internal/registry"
	"xfrost/internal/sessionstate"
	"xfrost/internal/transport"
)

// Wire bundles every store, codec, and transport collaborator the protocol
// engines need, before the local owner identity is known.
type Wire struct {
	Registry   domain.RegistryService
	State      *sessionstate.Store
	Codec      domain.EnvelopeCodec
	KV         domain.KvStore
	Collector  domain.Collector
	HTTP       *http.Client
	Parallel   bool
	MaxSigners int
	Threshold  int
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	store := registry.New(filepath.Join(cfg.Home, "registry.json"))
	svc := registry.NewService(store)
	state := sessionstate.New(filepath.Join(cfg.Home, "sessions"))

	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	var kv domain.KvStore
	if cfg.KvURL != "" {
		c := transport.NewHTTPClient(cfg.KvURL)
		c.HTTP = httpClient
		kv = c
	} else {
		kv = transport.NewMemory()
	}

	return &Wire{
		Registry:   svc,
		State:      state,
		Codec:      envelope.New(),
		KV:         kv,
		Collector:  collector.New(),
		HTTP:       httpClient,
		Parallel:   cfg.Parallel,
		MaxSigners: cfg.MaxSigners,
		Threshold:  cfg.Threshold,
	}, nil
}

// DKGEngine builds the distributed-key-generation engine for me, the local
// owner identity (spec.md §4.5).
func (w *Wire) DKGEngine(me domain.PrivateXIDDocument) *dkg.Engine {
	return &dkg.Engine{
		Me:        me,
		Codec:     w.Codec,
		Suite:     frostcrypto.New(w.MaxSigners, w.Threshold),
		KV:        w.KV,
		Collector: w.Collector,
		Registry:  w.Registry,
		State:     w.State,
		Parallel:  w.Parallel,
	}
}

// SigningEngine builds the threshold-signing engine for me, reusing the
// group's existing key package via the same session-state store (spec.md
// §4.6).
func (w *Wire) SigningEngine(me domain.PrivateXIDDocument) *signing.Engine {
	return &signing.Engine{
		Me:         me,
		Codec:      w.Codec,
		Suite:      frostcrypto.New(w.MaxSigners, w.Threshold),
		KV:         w.KV,
		Collector:  w.Collector,
		Registry:   w.Registry,
		State:      w.State,
		GroupState: w.State,
		Parallel:   w.Parallel,
	}
}
