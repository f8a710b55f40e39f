package registry

import (
	"encoding/json"
	"fmt"

	"github.com/gofrs/flock"

	domain "xfrost/internal/domain"
)

// Store is the file-backed domain.RegistryStore: one JSON file holds the
// owner's private XID document, every known participant's public XID
// document, group records, and routing bookkeeping. A sibling ".lock" file
// under the same directory provides the cross-process exclusive lock
// WithLock needs, since the registry file itself is rewritten wholesale on
// every save (spec.md §4.1, §5).
type Store struct {
	path     string
	lockPath string
}

var _ domain.RegistryStore = (*Store)(nil)

// New returns a Store backed by the registry file at path.
func New(path string) *Store {
	return &Store{path: path, lockPath: path + ".lock"}
}

// Load returns the current registry, or a fresh empty one if no file
// exists yet. It does not take the exclusive lock; callers that intend to
// mutate the registry must go through WithLock instead.
func (s *Store) Load() (*domain.Registry, error) {
	return s.loadLocked()
}

func (s *Store) loadLocked() (*domain.Registry, error) {
	b, err := readFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", s.path, err)
	}
	if b == nil {
		return domain.NewRegistry(), nil
	}
	var r domain.Registry
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("registry: parse %s: %w", s.path, err)
	}
	if r.Version == 0 {
		r.Version = domain.RegistryVersion
	}
	return &r, nil
}

// WithLock runs fn against a freshly-loaded registry under an exclusive
// file lock, persisting the result if fn returns a nil error. This is the
// only path by which the registry is mutated, so concurrent xfrost
// invocations against the same registry file never interleave a
// read-modify-write.
func (s *Store) WithLock(fn func(r *domain.Registry) error) error {
	lock := flock.New(s.lockPath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("registry: acquire lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	r, err := s.loadLocked()
	if err != nil {
		return err
	}
	if err := fn(r); err != nil {
		return err
	}
	if err := writeJSON(s.path, r, 0o600); err != nil {
		return fmt.Errorf("registry: write %s: %w", s.path, err)
	}
	return nil
}
