package leadconnector

import "testing"

func TestParseContactID(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		id    string
		found bool
		shape string
	}{
		{"nested", `{"contact":{"id":"abc"}}`, "abc", true, ShapeNested},
		{"flat", `{"id":"xyz"}`, "xyz", true, ShapeFlat},
		{"nested wins", `{"contact":{"id":"abc"},"id":"xyz"}`, "abc", true, ShapeNested},
		{"empty nested falls back", `{"contact":{"id":""},"id":"xyz"}`, "xyz", true, ShapeFlat},
		{"numeric id", `{"id":42}`, "42", true, ShapeFlat},
		{"neither", `{"contact":{"name":"Jane"}}`, "", false, ""},
		{"null body", `null`, "", false, ""},
		{"contact null", `{"contact":null}`, "", false, ""},
		{"contact string falls back", `{"contact":"x","id":"c-9"}`, "c-9", true, ShapeFlat},
		{"contact array falls back", `{"contact":[],"id":"c-9"}`, "c-9", true, ShapeFlat},
		{"contact number falls back", `{"contact":7,"id":"c-9"}`, "c-9", true, ShapeFlat},
		{"top-level array", `[]`, "", false, ""},
		{"top-level string", `"c-9"`, "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseContactID([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseContactID() error = %v", err)
			}
			if got.ID != tt.id || got.Found != tt.found || got.Shape != tt.shape {
				t.Errorf("ParseContactID() = %+v, want {%s %v %s}", got, tt.id, tt.found, tt.shape)
			}
		})
	}
}

func TestParseContactIDMalformed(t *testing.T) {
	for _, body := range []string{"", "not json", `{"id":`} {
		if _, err := ParseContactID([]byte(body)); err == nil {
			t.Errorf("ParseContactID(%q) expected error", body)
		}
	}
}
