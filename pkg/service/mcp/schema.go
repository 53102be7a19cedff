package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

func genaiType(t string) (genai.Type, error) {
	switch t {
	case "object":
		return genai.TypeObject, nil
	case "string":
		return genai.TypeString, nil
	case "integer":
		return genai.TypeInteger, nil
	case "number":
		return genai.TypeNumber, nil
	case "boolean":
		return genai.TypeBoolean, nil
	case "array":
		return genai.TypeArray, nil
	case "":
		return genai.TypeUnspecified, nil
	}
	return genai.TypeUnspecified, goerr.New("unsupported schema type", goerr.V("type", t))
}

// convertJSONSchemaToGenai converts a JSON Schema into the subset Gemini
// function declarations accept. A ["T", "null"] union becomes nullable T.
func convertJSONSchemaToGenai(schema *jsonschema.Schema) (*genai.Schema, error) {
	if schema == nil {
		return nil, nil
	}

	out := &genai.Schema{
		Description: schema.Description,
		Format:      schema.Format,
		Minimum:     schema.Minimum,
		Maximum:     schema.Maximum,
	}

	typeName := schema.Type
	if typeName == "" {
		for _, t := range schema.Types {
			if t == "null" {
				nullable := true
				out.Nullable = &nullable
				continue
			}
			if typeName == "" {
				typeName = t
			}
		}
	}

	typ, err := genaiType(typeName)
	if err != nil {
		return nil, err
	}
	out.Type = typ

	for _, v := range schema.Enum {
		if s, ok := v.(string); ok {
			out.Enum = append(out.Enum, s)
		}
	}

	if len(schema.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(schema.Properties))
		for name, prop := range schema.Properties {
			converted, err := convertJSONSchemaToGenai(prop)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to convert property schema", goerr.V("property", name))
			}
			out.Properties[name] = converted
		}
	}

	if len(schema.Required) > 0 {
		out.Required = schema.Required
	}

	if schema.Items != nil {
		converted, err := convertJSONSchemaToGenai(schema.Items)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert items schema")
		}
		out.Items = converted
	}

	return out, nil
}
