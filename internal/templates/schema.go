package templates

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/lumix-labs/swift-prompter/internal/models"
)

// SchemaID identifies the template file schema.
const SchemaID = "https://github.com/lumix-labs/swift-prompter/schemas/template.json"

var inputValueType = reflect.TypeOf(models.InputValue{})

// Schema returns the JSON Schema of a template file. Editors can use it to
// validate YAML, JSON and TOML definitions.
func Schema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == inputValueType {
				return &jsonschema.Schema{
					OneOf: []*jsonschema.Schema{
						{Type: "string"},
						{Type: "boolean"},
					},
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(&models.Template{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "swift-prompter template"
	return schema
}

// SchemaJSON renders Schema as indented JSON.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}
