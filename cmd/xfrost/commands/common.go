package commands

import (
	"fmt"

	domain "xfrost/internal/domain"
	"xfrost/internal/envelope"
)

// owner is a small convenience wrapper RunE funcs use at the top of every
// handler that needs this process's own identity.
func owner() (domain.PrivateXIDDocument, error) {
	return wire.Registry.Owner()
}

// knownSenders builds the XID->XIDDocument map DecodeRequest/DecodeResponse
// need to verify a sealed envelope's sender signature, covering every
// enrolled participant plus the owner itself.
func knownSenders(me domain.PrivateXIDDocument) (map[domain.XID]domain.XIDDocument, error) {
	docs, err := wire.Registry.ListParticipants()
	if err != nil {
		return nil, err
	}
	out := make(map[domain.XID]domain.XIDDocument, len(docs)+1)
	for _, d := range docs {
		out[d.XID] = d
	}
	out[me.XID] = me.XIDDocument
	return out, nil
}

// findDoc looks up an enrolled participant's XID document by XID.
func findDoc(xid domain.XID) (domain.XIDDocument, error) {
	docs, err := wire.Registry.ListParticipants()
	if err != nil {
		return domain.XIDDocument{}, err
	}
	for _, d := range docs {
		if d.XID == xid {
			return d, nil
		}
	}
	return domain.XIDDocument{}, fmt.Errorf("unknown participant %s: enroll them with 'registry participant-add' first", xid)
}

// resolveByPetName finds enrolled participants by their pet names, in the
// order given, for CLI flags like --participant that take human names.
func resolveByPetName(names []string) ([]domain.XIDDocument, error) {
	docs, err := wire.Registry.ListParticipants()
	if err != nil {
		return nil, err
	}
	byName := make(map[domain.PetName]domain.XIDDocument, len(docs))
	for _, d := range docs {
		byName[d.PetName] = d
	}
	out := make([]domain.XIDDocument, 0, len(names))
	for _, n := range names {
		d, ok := byName[domain.PetName(n)]
		if !ok {
			return nil, fmt.Errorf("no enrolled participant named %q", n)
		}
		out = append(out, d)
	}
	return out, nil
}

// resultMap turns a response params struct into the map[string]any shape
// EncodeResponse's Result field expects, the same encoding EncodeParams
// already gives request params.
func resultMap(v any) (map[string]any, error) {
	return envelope.EncodeParams(v)
}
