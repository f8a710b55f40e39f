package registry

import (
	"bytes"

	domain "xfrost/internal/domain"
	"xfrost/internal/xerr"
)

// Service implements domain.RegistryService's identity, group, and routing
// bookkeeping invariants on top of a domain.RegistryStore (spec.md §4.1).
type Service struct {
	store domain.RegistryStore
}

var _ domain.RegistryService = (*Service)(nil)

// NewService wraps store with the registry invariants.
func NewService(store domain.RegistryStore) *Service {
	return &Service{store: store}
}

// SetOwner persists doc as the registry's owner, verifying idempotence
// against any existing owner by inception public keys rather than by
// reference equality (spec.md §4.1's owner-set operation).
func (s *Service) SetOwner(doc domain.PrivateXIDDocument) error {
	return s.store.WithLock(func(r *domain.Registry) error {
		if r.Owner != nil {
			if r.Owner.XID != doc.XID || !bytes.Equal(r.Owner.Keys.SigningKey[:], doc.Keys.SigningKey[:]) ||
				!bytes.Equal(r.Owner.Keys.EncapsulationKey[:], doc.Keys.EncapsulationKey[:]) {
				return xerr.New(xerr.OwnerConflict, "SetOwner", "an owner with different inception keys already exists")
			}
			return nil // idempotent: identical owner already set
		}
		owner := doc
		r.Owner = &owner
		return nil
	})
}

// AddParticipant enrolls a participant's public XID document under an
// optional pet name, rejecting self-enrollment, pet-name collisions across
// distinct XIDs, and re-additions of the same XID with a different pet
// name (spec.md §4.1's participant-add operation).
func (s *Service) AddParticipant(doc domain.XIDDocument, petName domain.PetName) error {
	return s.store.WithLock(func(r *domain.Registry) error {
		if r.Owner != nil && doc.XID == r.Owner.XID {
			return xerr.New(xerr.DuplicateParticipant, "AddParticipant", "a participant cannot enroll its own owner XID")
		}
		if existing, ok := r.Participants[doc.XID]; ok {
			if existing.PetName != petName {
				return xerr.New(xerr.PetNameConflict, "AddParticipant", "xid already enrolled under a different pet name")
			}
			return nil // idempotent: identical (xid, pet name) pair
		}
		if petName != "" {
			for xid, p := range r.Participants {
				if xid != doc.XID && p.PetName == petName {
					return xerr.New(xerr.PetNameConflict, "AddParticipant", "pet name already in use by another participant")
				}
			}
		}
		doc.PetName = petName
		if r.Participants == nil {
			r.Participants = make(map[domain.XID]domain.XIDDocument)
		}
		r.Participants[doc.XID] = doc
		return nil
	})
}

// ListParticipants returns every enrolled participant's public XID document.
func (s *Service) ListParticipants() ([]domain.XIDDocument, error) {
	r, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	out := make([]domain.XIDDocument, 0, len(r.Participants))
	for _, doc := range r.Participants {
		out = append(out, doc)
	}
	return out, nil
}

// UpsertGroup creates or replaces the group record keyed by g.GroupID.
func (s *Service) UpsertGroup(g domain.GroupRecord) error {
	return s.store.WithLock(func(r *domain.Registry) error {
		if r.Groups == nil {
			r.Groups = make(map[domain.ARID]domain.GroupRecord)
		}
		r.Groups[g.GroupID] = g
		return nil
	})
}

// Group looks up a group record by its ARID.
func (s *Service) Group(id domain.ARID) (domain.GroupRecord, bool, error) {
	r, err := s.store.Load()
	if err != nil {
		return domain.GroupRecord{}, false, err
	}
	g, ok := r.Groups[id]
	return g, ok, nil
}

// SetListeningAt records the ARID this owner is currently polling for its
// next inbound message.
func (s *Service) SetListeningAt(arid domain.ARID) error {
	return s.store.WithLock(func(r *domain.Registry) error {
		a := arid
		r.ListeningAtARID = &a
		return nil
	})
}

// ClearListeningAt forgets the currently-polled ARID.
func (s *Service) ClearListeningAt() error {
	return s.store.WithLock(func(r *domain.Registry) error {
		r.ListeningAtARID = nil
		return nil
	})
}

// ListeningAt returns the currently-polled ARID, if any.
func (s *Service) ListeningAt() (domain.ARID, bool, error) {
	r, err := s.store.Load()
	if err != nil {
		return domain.ARID{}, false, err
	}
	if r.ListeningAtARID == nil {
		return domain.ARID{}, false, nil
	}
	return *r.ListeningAtARID, true, nil
}

// SetPendingRequests records the outstanding routing bookkeeping for one
// logical phase ARID (e.g. a group or session identifier).
func (s *Service) SetPendingRequests(phase domain.ARID, reqs []domain.PendingRequest) error {
	return s.store.WithLock(func(r *domain.Registry) error {
		if r.PendingRequests == nil {
			r.PendingRequests = make(map[domain.ARID][]domain.PendingRequest)
		}
		r.PendingRequests[phase] = reqs
		return nil
	})
}

// PendingRequests returns the outstanding routing bookkeeping for phase.
func (s *Service) PendingRequests(phase domain.ARID) ([]domain.PendingRequest, error) {
	r, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	return r.PendingRequests[phase], nil
}

// ClearPendingRequests forgets the routing bookkeeping for phase once it
// has been fully consumed.
func (s *Service) ClearPendingRequests(phase domain.ARID) error {
	return s.store.WithLock(func(r *domain.Registry) error {
		delete(r.PendingRequests, phase)
		return nil
	})
}

// Owner returns the registry's owner private XID document, failing with
// StateCorruption if no owner has been set yet.
func (s *Service) Owner() (domain.PrivateXIDDocument, error) {
	r, err := s.store.Load()
	if err != nil {
		return domain.PrivateXIDDocument{}, err
	}
	if r.Owner == nil {
		return domain.PrivateXIDDocument{}, xerr.New(xerr.StateCorruption, "Owner", "registry has no owner; run 'xfrost owner set' first")
	}
	return *r.Owner, nil
}
