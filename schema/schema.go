// Package schema reflects the wire shape of a Snapshot into a JSON Schema
// document, so an offline analysis tool can validate recordings without
// compiling against this module. It mirrors the teacher's
// effects/catalog/schema_generate.go reflector setup.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/hollowtick/longtail/engine"
)

// Build reflects engine.Snapshot into a JSON Schema document.
func Build() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	root := reflector.ReflectFromType(reflect.TypeOf(engine.Snapshot{}))
	if root == nil {
		return nil, fmt.Errorf("schema: failed to reflect engine.Snapshot")
	}
	root.Version = jsonschema.Version
	root.Title = "Long-tail Profiler Snapshot"
	root.Description = "Encounter recording emitted by the engine's deferred snapshot ticker."
	return root, nil
}

// Marshal renders the schema as indented JSON, matching the teacher's
// generator output format.
func Marshal() ([]byte, error) {
	s, err := Build()
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schema: marshal: %w", err)
	}
	return append(data, '\n'), nil
}
