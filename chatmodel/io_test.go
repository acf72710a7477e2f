package chatmodel

import (
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputRequest(t *testing.T) {
	t.Parallel()
	r := &InputRequest{}
	raw := `{"input":"hello"}`
	err := r.ParseInput(raw)
	require.NoError(t, err)
	assert.Equal(t, "hello", r.Input)

	// GetContent returns input
	assert.Equal(t, "hello", r.GetContent())

	// Bad input
	err = r.ParseInput("{broken}")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFailedUnmarshalInput)

	// NewInputRequest
	ri := NewInputRequest("bar")
	assert.Equal(t, "bar", ri.Input)
}

func TestInputRequest_JSONSchemaExtend(t *testing.T) {
	t.Parallel()
	r := InputRequest{}
	schema := &jsonschema.Schema{}
	r.JSONSchemaExtend(schema)
	assert.Equal(t, "Input Request", schema.Title)
}

func TestOutputResult(t *testing.T) {
	t.Parallel()
	r := OutputResult{Content: "foo"}
	assert.Equal(t, "foo", r.GetContent())

	nr := NewOutputResult("baz")
	assert.Equal(t, "baz", nr.Content)

	schema := &jsonschema.Schema{}
	r.JSONSchemaExtend(schema)
	assert.Equal(t, "Output Result", schema.Title)
}

func TestBaseClarificationResultSetters(t *testing.T) {
	t.Parallel()
	var res BaseClarificationResult
	res.SetConfidence("Medium")
	assert.Equal(t, "Medium", res.Confidence)
	res.SetClarification("Need more info")
	assert.Equal(t, "Need more info", res.Clarification)
	res.SetReasoning("Logic chain")
	assert.Equal(t, "Logic chain", res.Reasoning)
}

func TestStringify(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "foo", Stringify(NewString("foo")))
	assert.Equal(t, "bar", Stringify(OutputResult{Content: "bar"}))

	type plain struct {
		Input string `json:"input"`
	}
	assert.Equal(t, `{"input":"baz"}`, Stringify(plain{Input: "baz"}))
	assert.Equal(t, []byte(`{"input":"baz"}`), ToBytes(plain{Input: "baz"}))
}
