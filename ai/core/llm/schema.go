package llm

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema is a JSON schema document usable as an OpenAI response format.
type Schema map[string]any

// MarshalJSON implements json.Marshaler for the response format field.
func (s Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(s))
}

// GenerateSchema reflects T into a strict schema: every property required,
// no additional properties, no $ref indirection.
func GenerateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	raw, err := reflector.Reflect(v).MarshalJSON()
	if err != nil {
		panic(err)
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		panic(err)
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	strictify(schema)
	return schema
}

func strictify(schema map[string]any) {
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if properties, ok := schema["properties"].(map[string]any); ok {
			required := make([]string, 0, len(properties))
			for name := range properties {
				required = append(required, name)
			}
			if len(required) > 0 {
				schema["required"] = required
			}
		}
	}
	if properties, ok := schema["properties"].(map[string]any); ok {
		for _, prop := range properties {
			if propMap, ok := prop.(map[string]any); ok {
				strictify(propMap)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		strictify(items)
	}
}
