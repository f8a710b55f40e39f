package dkg

import (
	"bytes"
	"sort"

	domain "xfrost/internal/domain"
)

// AssignIdentifiers orders participants by ascending XID byte value and
// assigns 1-based ranks as their FROST identifiers (spec.md §4.5, §8
// scenario 6), a computation every party performs independently and
// arrives at the same result for.
func AssignIdentifiers(coordinator domain.XIDDocument, others []domain.XIDDocument) []domain.GroupParticipant {
	all := make([]domain.XIDDocument, 0, len(others)+1)
	all = append(all, coordinator)
	all = append(all, others...)
	sort.Slice(all, func(i, j int) bool {
		return bytes.Compare(all[i].XID[:], all[j].XID[:]) < 0
	})
	out := make([]domain.GroupParticipant, len(all))
	for i, doc := range all {
		out[i] = domain.GroupParticipant{
			XID:        doc.XID,
			PetName:    doc.PetName,
			Identifier: domain.Identifier(i + 1),
		}
	}
	return out
}
