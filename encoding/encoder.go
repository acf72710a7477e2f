package encoding

import (
	"github.com/cockroachdb/errors"
	dummyenc "github.com/effective-security/agentd/encoding/dummy"
	jsonenc "github.com/effective-security/agentd/encoding/json"
	yamlenc "github.com/effective-security/agentd/encoding/yaml"
)

type SchemaEncoder interface {
	Marshal(req any) ([]byte, error)
	Unmarshal([]byte, any) error
	// GetFormatInstructions returns the wrapped message with message schema for the prompt
	GetFormatInstructions() string
}

type Validator interface {
	Validate(any) error
}

type Mode = string

const (
	ModeJSON             Mode = "json"
	ModeJSONSchema       Mode = "json_schema"
	ModeJSONSchemaStrict Mode = "json_schema_strict" // Not all providers support this and all props must be required
	ModeYAML             Mode = "yaml"
	ModePlainText        Mode = "plain_text"
)

// ModeDefault is the default mode for the encoder.
// Allow to override in apps
var ModeDefault = ModeJSONSchema

func PredefinedSchemaEncoder(mode Mode, req any) (SchemaEncoder, error) {
	var (
		enc SchemaEncoder
		err error
	)
	switch mode {
	case ModeJSON, ModeJSONSchema, ModeJSONSchemaStrict:
		enc, err = jsonenc.NewEncoder(req)
	case ModeYAML:
		enc = yamlenc.NewEncoder(req)
	case ModePlainText:
		enc = dummyenc.NewEncoder()
	default:
		return nil, errors.New("no predefined encoder")
	}
	return enc, err
}

var (
	_ SchemaEncoder = (*dummyenc.Encoder)(nil)
	_ SchemaEncoder = (*jsonenc.Encoder)(nil)
	_ SchemaEncoder = (*yamlenc.Encoder)(nil)
)
