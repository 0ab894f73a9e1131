package llmclient

import (
	"encoding/json"
	"testing"
)

func TestExtractJSONObject_DirectObject(t *testing.T) {
	raw := `{"links": []}`
	got, err := ExtractJSONObject(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != raw {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestExtractJSONObject_StripsCodeFences(t *testing.T) {
	raw := "```json\n{\"links\": [{\"source_id\": \"a\"}]}\n```"
	got, err := ExtractJSONObject(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(got, &parsed); err != nil {
		t.Fatalf("extracted bytes are not valid JSON: %v", err)
	}
	if _, ok := parsed["links"]; !ok {
		t.Fatalf("expected a links key, got %s", got)
	}
}

func TestExtractJSONObject_FindsEmbeddedObject(t *testing.T) {
	raw := `Here is the timing you asked for: {"links": []} hope it helps!`
	got, err := ExtractJSONObject(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `{"links": []}` {
		t.Fatalf("expected the embedded object, got %q", got)
	}
}

func TestExtractJSONObject_RejectsNonObjects(t *testing.T) {
	cases := []string{
		"",
		"   \n ",
		"no json here",
		`["an", "array"]`,
		"{broken",
	}
	for _, raw := range cases {
		if got, err := ExtractJSONObject(raw); err == nil {
			t.Fatalf("input %q: expected an error, got %q", raw, got)
		}
	}
}
