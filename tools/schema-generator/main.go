package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/mattsolo1/grove-callsim/cmd"
	"github.com/mattsolo1/grove-callsim/pkg/simulation"
)

func writeSchema(path string, schema *jsonschema.Schema) {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("Error marshaling schema: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}
	log.Printf("Successfully generated schema at %s", path)
}

func main() {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	schema := r.Reflect(&cmd.CallsimConfig{})
	schema.Title = "Grove Callsim Configuration"
	schema.Description = "Schema for the 'callsim' extension in grove.yml."

	// Grove configs should not require any fields
	schema.Required = nil

	writeSchema("callsim.schema.json", schema)

	// The transcript is written with encoding/json, so reflect on json tags.
	artifactReflector := &jsonschema.Reflector{ExpandedStruct: true}
	artifactSchema := artifactReflector.Reflect(&simulation.Artifact{})
	artifactSchema.Title = "Grove Callsim Transcript"
	artifactSchema.Description = "Schema for the transcript written at the end of a run."

	writeSchema("callsim-transcript.schema.json", artifactSchema)
}
