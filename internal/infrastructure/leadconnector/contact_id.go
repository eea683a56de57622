package leadconnector

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	ShapeNested = "contact.id"
	ShapeFlat   = "id"
)

// ContactIDResult is what ParseContactID found in an upsert response.
type ContactIDResult struct {
	ID    string
	Found bool
	Shape string
}

// ParseContactID pulls the contact id out of an upsert response.
// The API answers either {"contact":{"id":...}} or {"id":...}; the nested form wins.
// Bodies that are valid JSON but not objects, or a non-object "contact", are treated as carrying no id.
func ParseContactID(body []byte) (ContactIDResult, error) {
	var decoded any
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&decoded); err != nil {
		return ContactIDResult{}, fmt.Errorf("decode upsert response: %w", err)
	}

	envelope, ok := decoded.(map[string]any)
	if !ok {
		return ContactIDResult{}, nil
	}
	if contact, ok := envelope["contact"].(map[string]any); ok {
		if id, ok := idString(contact["id"]); ok {
			return ContactIDResult{ID: id, Found: true, Shape: ShapeNested}, nil
		}
	}
	if id, ok := idString(envelope["id"]); ok {
		return ContactIDResult{ID: id, Found: true, Shape: ShapeFlat}, nil
	}
	return ContactIDResult{}, nil
}

func idString(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case json.Number:
		if f, err := id.Float64(); err == nil && f == 0 {
			return "", false
		}
		return id.String(), true
	default:
		return "", false
	}
}
