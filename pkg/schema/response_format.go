package schema

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// ResponseFormat is the structured-output format of a model response.
type ResponseFormat struct {
	Type       string                    `json:"type"`
	JSONSchema *ResponseFormatJSONSchema `json:"json_schema,omitempty"`
}

type ResponseFormatJSONSchema struct {
	Name   string                            `json:"name"`
	Strict bool                              `json:"strict"`
	Schema *ResponseFormatJSONSchemaProperty `json:"schema"`
}

type ResponseFormatJSONSchemaProperty struct {
	Type                 string                                       `json:"type"`
	Title                string                                       `json:"title,omitempty"`
	Description          string                                       `json:"description,omitempty"`
	Enum                 []any                                        `json:"enum,omitempty"`
	Default              any                                          `json:"default,omitempty"`
	Examples             []any                                        `json:"examples,omitempty"`
	Items                *ResponseFormatJSONSchemaProperty            `json:"items,omitempty"`
	Properties           map[string]*ResponseFormatJSONSchemaProperty `json:"properties,omitempty"`
	AdditionalProperties *bool                                        `json:"additionalProperties,omitempty"`
	Required             []string                                     `json:"required,omitempty"`
	Ref                  string                                       `json:"$ref,omitempty"`
}

// NewResponseFormat builds a json_schema response format from the given type.
// Strict mode requires every object to close additionalProperties.
func NewResponseFormat(t reflect.Type, strict bool) (*ResponseFormat, error) {
	sc, err := New(t)
	if err != nil {
		return nil, err
	}
	return &ResponseFormat{
		Type: "json_schema",
		JSONSchema: &ResponseFormatJSONSchema{
			Name:   t.Name(),
			Strict: strict,
			Schema: toOpenAISchema(sc.Parameters, strict),
		},
	}, nil
}

var (
	trueVal  = true
	falseVal = false
)

func toOpenAISchema(in *jsonschema.Schema, strict bool) *ResponseFormatJSONSchemaProperty {
	if in == nil {
		return nil
	}

	result := &ResponseFormatJSONSchemaProperty{
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		Enum:        in.Enum,
		Default:     in.Default,
		Examples:    in.Examples,
		Required:    in.Required,
		Ref:         in.Ref,
	}

	// An AdditionalProperties schema means the object is open. Plain objects
	// are closed so the schema passes strict structured-output validation.
	if in.AdditionalProperties != nil {
		result.AdditionalProperties = &trueVal
	} else if in.Type == "object" {
		result.AdditionalProperties = &falseVal
	}

	if in.Properties != nil {
		result.Properties = make(map[string]*ResponseFormatJSONSchemaProperty)
		for pair := in.Properties.Oldest(); pair != nil; pair = pair.Next() {
			result.Properties[pair.Key] = toOpenAISchema(pair.Value, strict)
		}
	}

	if in.Items != nil {
		result.Items = toOpenAISchema(in.Items, strict)
	}

	return result
}
