package schema

import (
	"encoding/json"

	"github.com/getkin/kin-openapi/openapi3"
)

// ToOpenAPI converts s into a kin-openapi schema. References become
// refPrefix+name, e.g. "#/components/schemas/" or "" for bare names.
func ToOpenAPI(s *Schema, refPrefix string) *openapi3.SchemaRef {
	if s == nil {
		return openapi3.NewSchemaRef("", openapi3.NewSchema())
	}
	if s.Kind == Ref {
		return openapi3.NewSchemaRef(refPrefix+s.Ref, nil)
	}
	out := openapi3.NewSchema()
	out.Description = s.Description
	out.Format = s.Format
	for _, e := range s.Enum {
		out.Enum = append(out.Enum, e)
	}
	switch s.Kind {
	case Object:
		out.Type = "object"
		if len(s.Fields) > 0 {
			out.Properties = make(openapi3.Schemas, len(s.Fields))
		}
		for _, f := range s.Fields {
			out.Properties[f.Name] = ToOpenAPI(f.Schema, refPrefix)
			if f.Required {
				out.Required = append(out.Required, f.Name)
			}
		}
	case Array:
		out.Type = "array"
		out.Items = ToOpenAPI(s.Items, refPrefix)
	case String:
		out.Type = "string"
	case Integer:
		out.Type = "integer"
	case Number:
		out.Type = "number"
	case Boolean:
		out.Type = "boolean"
	case Date:
		out.Type = "string"
		switch out.Format {
		case "date", "date-only":
			out.Format = "date"
		case "time-only":
			out.Format = "time"
		default:
			out.Format = "date-time"
		}
	case File:
		out.Type = "string"
		out.Format = "binary"
	}
	return openapi3.NewSchemaRef("", out)
}

// ToJSON renders s as an indented JSON Schema document.
func ToJSON(s *Schema) ([]byte, error) {
	ref := ToOpenAPI(s, "")
	if ref.Ref != "" {
		return json.MarshalIndent(map[string]string{"$ref": ref.Ref}, "", "  ")
	}
	return json.MarshalIndent(ref.Value, "", "  ")
}
