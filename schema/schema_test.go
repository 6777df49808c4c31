package schema

import "testing"

func TestBuildProducesNonEmptySchema(t *testing.T) {
	s, err := Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s.Title == "" {
		t.Fatalf("expected a title on the reflected schema")
	}
	if len(s.Properties.Keys()) == 0 {
		t.Fatalf("expected reflected properties for engine.Snapshot")
	}
}

func TestMarshalProducesValidJSON(t *testing.T) {
	data, err := Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty schema bytes")
	}
}
