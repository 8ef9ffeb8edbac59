// Package sanitize strips server-joined display fields from outgoing payloads.
// The kennel API decorates read responses with fields such as dam_name or
// breed_info and rejects any field it does not know on create or update.
package sanitize

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DisplayFields is the fixed deny-list of read-only display fields.
var DisplayFields = []string{
	"dam_name",
	"sire_name",
	"breed_name",
	"dam_info",
	"sire_info",
	"breed_info",
	"dog_name",
	"puppy_name",
	"owner_name",
	"created_by_name",
	"updated_by_name",
	"dog_info",
	"puppy_info",
	"owner_info",
}

// Fields returns a shallow copy of entity without the display fields and
// without any extra field names. A nil map is returned unchanged. Nested
// objects are not inspected; a decorated sub-object such as dog_info is
// removed wholesale.
func Fields(entity map[string]any, extra ...string) map[string]any {
	if entity == nil {
		return nil
	}

	out := make(map[string]any, len(entity))
	for k, v := range entity {
		out[k] = v
	}
	for _, k := range DisplayFields {
		delete(out, k)
	}
	for _, k := range extra {
		delete(out, k)
	}
	return out
}

// Payload converts v to its JSON object form and applies Fields. A nil v
// yields a nil map. v must encode to a JSON object.
func Payload(v any, extra ...string) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := v.(map[string]any); ok {
		return Fields(m, extra...), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("sanitize: marshal payload: %w", err)
	}
	if string(data) == "null" {
		return nil, nil
	}

	// UseNumber keeps int64 IDs exact on the way back out.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("sanitize: payload is not an object: %w", err)
	}
	return Fields(m, extra...), nil
}
