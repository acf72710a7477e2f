package chatmodel

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"
)

// ContentProvider provides the content of a message for the chat history.
type ContentProvider interface {
	GetContent() string
}

// InputParser parses a raw request into the typed input.
type InputParser interface {
	// ParseInput parses the raw input.
	// If the input does not match the schema, it should return ErrFailedUnmarshalInput error.
	ParseInput(input string) error
}

// InputRequest is a generic request with a single input message.
type InputRequest struct {
	Input string `json:"input" yaml:"input" jsonschema:"title=Input,description=The message sent by the user to the assistant."`
}

func NewInputRequest(input string) *InputRequest {
	return &InputRequest{
		Input: input,
	}
}

func (r *InputRequest) ParseInput(input string) error {
	err := json.Unmarshal([]byte(input), r)
	if err != nil {
		return errors.WithStack(ErrFailedUnmarshalInput)
	}
	return nil
}

// GetContent gets the content of the message for the chat history
func (r InputRequest) GetContent() string {
	return r.Input
}

func (r InputRequest) JSONSchemaExtend(schema *jsonschema.Schema) {
	schema.Title = "Input Request"
}

// OutputResult is a generic result with a single content message.
type OutputResult struct {
	Content string `json:"content" yaml:"content" jsonschema:"title=Response Content,description=The content returned by agent or tool."`
}

func NewOutputResult(content string) *OutputResult {
	return &OutputResult{
		Content: content,
	}
}

// GetContent gets the content of the message for the chat history
func (r OutputResult) GetContent() string {
	return r.Content
}

func (r OutputResult) JSONSchemaExtend(schema *jsonschema.Schema) {
	schema.Title = "Output Result"
}

// IBaseResult is an optional interface a typed result can implement to
// receive confidence and clarification fields from the assistant.
type IBaseResult interface {
	SetConfidence(confidence string)
	SetClarification(clarification string)
	SetReasoning(reasoning string)
}

// BaseClarificationResult can be embedded into a typed result to let the
// model report confidence or ask a clarification question instead of answering.
type BaseClarificationResult struct {
	Confidence    string `json:"confidence,omitempty" yaml:"confidence,omitempty" jsonschema:"title=Confidence,description=Confidence in the answer: High\\, Medium or Low."`
	Clarification string `json:"clarification,omitempty" yaml:"clarification,omitempty" jsonschema:"title=Clarification,description=A clarification question to the user\\, when the request is ambiguous."`
	Reasoning     string `json:"reasoning,omitempty" yaml:"reasoning,omitempty" jsonschema:"title=Reasoning,description=Short reasoning for the answer."`
}

func (r *BaseClarificationResult) SetConfidence(confidence string) {
	r.Confidence = confidence
}

func (r *BaseClarificationResult) SetClarification(clarification string) {
	r.Clarification = clarification
}

func (r *BaseClarificationResult) SetReasoning(reasoning string) {
	r.Reasoning = reasoning
}
