package schema

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Faker is a interface for generating structures
// with fake data. It is used for generating test data.
type Faker interface {
	Fake() any
}

var (
	cache   = make(map[reflect.Type]*Schema)
	cacheMu sync.RWMutex
)

// Schema holds the reflected JSON schema of a tool input or output type.
type Schema struct {
	RawSchema *jsonschema.Schema
	// Parameters represents the function parameters definition,
	// with top-level $refs resolved into inline schemas.
	Parameters *jsonschema.Schema
}

// New creates a new schema from the given type.
// Reflection results are cached per type for the process lifetime.
func New(t reflect.Type) (*Schema, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if s, ok := cache[t]; ok {
		return s, nil
	}

	s, err := buildSchema(t)
	if err != nil {
		return nil, err
	}
	cache[t] = s

	return s, nil
}

func (s *Schema) String() string {
	js, _ := json.MarshalIndent(s.Parameters, "", "\t")
	return string(js)
}

func buildSchema(t reflect.Type) (*Schema, error) {
	schema := JSONSchema(t)

	funcDef := ToFunctionSchema(t, schema)
	s := &Schema{
		RawSchema:  schema,
		Parameters: funcDef,
	}

	return s, nil
}

// ToFunctionSchema flattens a reflected schema into the shape function-calling
// APIs expect: a root object with inline properties and no $defs indirection.
func ToFunctionSchema(tType reflect.Type, tSchema *jsonschema.Schema) *jsonschema.Schema {
	redID := strings.TrimPrefix(tSchema.Ref, "#/$defs/")

	var defs = make(map[string]*jsonschema.Schema)
	root := tSchema

	for name, def := range tSchema.Definitions {
		if name == redID {
			root = def
		} else {
			defs[name] = def
		}
	}

	res := &jsonschema.Schema{
		Type:       root.Type,
		Properties: root.Properties,
		Required:   root.Required,
	}

	resolveRefs(res.Properties, defs)

	return res
}

func resolveRefs(props *orderedmap.OrderedMap[string, *jsonschema.Schema], defs map[string]*jsonschema.Schema) {
	if props == nil {
		return
	}
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		child := pair.Value
		if child.Ref != "" {
			pair.Value = resolvedOrInline(child, defs)
		}
		if child.Properties != nil {
			resolveRefs(child.Properties, defs)
		}
		if child.Items != nil && child.Items.Ref != "" {
			child.Items = resolvedOrInline(child.Items, defs)
		}
	}
}

// resolvedOrInline returns the referenced definition, or an inline object
// schema when the definition is not present (self-referencing types).
func resolvedOrInline(child *jsonschema.Schema, defs map[string]*jsonschema.Schema) *jsonschema.Schema {
	name := strings.TrimPrefix(child.Ref, "#/$defs/")
	if def, ok := defs[name]; ok {
		return def
	}
	return &jsonschema.Schema{
		Type:        "object",
		Description: child.Description,
		Properties:  child.Properties,
		Required:    child.Required,
	}
}

func (s *Schema) NameFromRef() string {
	return strings.Split(s.RawSchema.Ref, "/")[2] // ex: '#/$defs/MyStruct'
}

// JSONSchema returns the json schema of the given type.
func JSONSchema(t reflect.Type) *jsonschema.Schema {
	// VS Code does not support the jsonschema version 2020-12
	jsonschema.Version = "http://json-schema.org/draft-07/schema#"

	r := new(jsonschema.Reflector)
	r.ExpandedStruct = true
	r.DoNotReference = true
	r.AllowAdditionalProperties = true

	// Struct names can collide across packages, which breaks $ref targets.
	// Disambiguate by hashing the full package path into the name.
	// See https://github.com/invopop/jsonschema/issues/42
	r.Namer = func(t reflect.Type) string {
		name := t.Name()
		if t.Kind() == reflect.Struct {
			v := reflect.New(t)
			vt := v.Elem().Type()
			fullname := vt.PkgPath() + "/" + vt.Name()
			name = vt.Name() + "@" + strconv.FormatUint(xxhash.Sum64String(fullname), 10)
		}
		return name
	}

	return r.ReflectFromType(t)
}

// MustFromAny creates a json schema from any JSON-marshalable value.
// It panics if the value is not valid.
//
// For example:
//
//	map[string]any{
//		"type": "object",
//		"properties": map[string]any{
//			"query": map[string]any{
//				"type": "string",
//			},
//		},
//	}
func MustFromAny(t any) *jsonschema.Schema {
	schema, err := FromAny(t)
	if err != nil {
		panic(err)
	}
	return schema
}

func FromAny(t any) (*jsonschema.Schema, error) {
	js, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	schema := &jsonschema.Schema{}
	err = json.Unmarshal(js, schema)
	if err != nil {
		return nil, err
	}
	return schema, nil
}

// ToMap converts a schema into the generic map form some provider SDKs expect.
func ToMap(s *jsonschema.Schema) (map[string]any, error) {
	js, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(js, &m); err != nil {
		return nil, err
	}
	return m, nil
}
