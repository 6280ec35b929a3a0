package judgment

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// SchemaFor renders the JSON schema of v for embedding in a prompt.
func SchemaFor(v any) string {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	schema := r.Reflect(v)
	schema.Version = ""

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		// Reflected schemas of plain structs always marshal.
		panic(err)
	}
	return string(data)
}
