package encoding_test

import (
	"testing"

	"github.com/effective-security/agentd/encoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_JSON_Encoding(t *testing.T) {
	e, err := encoding.PredefinedSchemaEncoder(encoding.ModeJSON, ToolPick{})
	require.NoError(t, err)

	exp := `
Respond with JSON in the following JSON schema:
` + "```json" + `
{
	"properties": {
		"tool": {
			"type": "string",
			"title": "Tool",
			"description": "Name of the tool to invoke"
		},
		"query": {
			"type": "string",
			"title": "Query",
			"description": "Input forwarded to the tool"
		},
		"mode": {
			"type": "string",
			"enum": [
				"auto",
				"forced",
				"none"
			],
			"title": "Mode",
			"description": "How the call is dispatched",
			"default": "auto"
		}
	},
	"type": "object",
	"required": [
		"tool",
		"query",
		"mode"
	]
}
` + "```" + `
Make sure to return an instance of the JSON, not the schema itself.
Use the exact field names as they are defined in the schema.
`

	assert.Equal(t, exp, e.GetFormatInstructions())

	var pick ToolPick
	err = e.Unmarshal([]byte("```json\n{\"tool\": \"wikipedia\", \"query\": \"Go language\", \"mode\": \"auto\"}\n```"), &pick)
	require.NoError(t, err)
	assert.Equal(t, "wikipedia", pick.Tool)
	assert.Equal(t, Auto, pick.Mode)
}

func Test_YAML_Encoding(t *testing.T) {
	e, err := encoding.PredefinedSchemaEncoder(encoding.ModeYAML, ToolPick{})
	require.NoError(t, err)

	exp := `
Respond with YAML in the following YAML schema without comments:
` + "```yaml" + `
tool: calculator
query: 15 / 3
mode: auto
` + "```" + `
Make sure to return an instance of the YAML, not the schema itself.
`

	assert.Equal(t, exp, e.GetFormatInstructions())

	var pick ToolPick
	err = e.Unmarshal([]byte("```yaml\ntool: http_request\nquery: https://example.com\nmode: forced\n```"), &pick)
	require.NoError(t, err)
	assert.Equal(t, "http_request", pick.Tool)
	assert.Equal(t, Forced, pick.Mode)
}

func Test_PlainText_Encoding(t *testing.T) {
	e, err := encoding.PredefinedSchemaEncoder(encoding.ModePlainText, ToolPick{})
	require.NoError(t, err)
	assert.Empty(t, e.GetFormatInstructions())

	bs, err := e.Marshal("final answer")
	require.NoError(t, err)
	assert.Equal(t, "final answer", string(bs))
}

func Test_Predefined_Unknown(t *testing.T) {
	_, err := encoding.PredefinedSchemaEncoder("custom", ToolPick{})
	assert.EqualError(t, err, "no predefined encoder")
}

type PickMode string

const (
	Auto   PickMode = "auto"
	Forced PickMode = "forced"
	None   PickMode = "none"
)

type ToolPick struct {
	Tool  string   `json:"tool" yaml:"tool" jsonschema:"title=Tool,description=Name of the tool to invoke" fake:"calculator"`
	Query string   `json:"query" yaml:"query" jsonschema:"title=Query,description=Input forwarded to the tool" fake:"15 / 3"`
	Mode  PickMode `json:"mode"  yaml:"mode" jsonschema:"title=Mode,description=How the call is dispatched,default=auto,enum=auto,enum=forced,enum=none" fake:"auto"`
}
