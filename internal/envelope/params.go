package envelope

import "encoding/json"

// EncodeParams flattens a typed parameter struct into the map[string]any
// shape Request/Response bodies carry, so protocol engines can work with
// ordinary structs instead of hand-building maps (spec.md §6's parameter
// tables, one struct per function name).
func EncodeParams(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeParams is the inverse of EncodeParams: it recovers a typed
// parameter struct from a Request/Response's generic params map.
func DecodeParams(params map[string]any, out any) error {
	b, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
