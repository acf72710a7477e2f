package tools

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentd/chatmodel"
	"github.com/effective-security/agentd/pkg/llms"
	"github.com/go-playground/validator/v10"
)

// Status classifies the outcome of a tool invocation.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusValidationError  Status = "validation_error"
	StatusDisallowed       Status = "disallowed"
	StatusExecutionError   Status = "execution_error"
	StatusTimeout          Status = "timeout"
	StatusResourceExceeded Status = "resource_exceeded"
)

var (
	// ErrToolNotFound is returned when the requested tool is not registered.
	ErrToolNotFound = errors.New("tool not found")
	// ErrToolDisabled is returned when the requested tool is registered but disabled.
	ErrToolDisabled = errors.New("tool disabled")
	// ErrInvalidInput is returned when the input does not satisfy the tool schema.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDisallowed is returned when the operation is blocked by policy.
	ErrDisallowed = errors.New("operation disallowed by policy")
	// ErrTimeout is returned when the tool did not complete within its time limit.
	ErrTimeout = errors.New("execution timed out")
	// ErrResourceExceeded is returned when the tool exceeded its resource limits.
	ErrResourceExceeded = errors.New("resource limit exceeded")
)

// ClassifyError maps an error returned by a tool invocation to a Status.
// Every status except Success is recoverable: the result is reported back
// to the model as an observation, never raised to the run loop.
func ClassifyError(err error) Status {
	var verr validator.ValidationErrors
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrToolNotFound),
		errors.Is(err, ErrToolDisabled),
		errors.Is(err, ErrDisallowed):
		return StatusDisallowed
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.Is(err, ErrResourceExceeded):
		return StatusResourceExceeded
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, chatmodel.ErrFailedUnmarshalInput),
		errors.As(err, &verr):
		return StatusValidationError
	default:
		return StatusExecutionError
	}
}

// Result is the normalized outcome of a tool invocation.
type Result struct {
	ToolName string `json:"tool"`
	CallID   string `json:"call_id,omitempty"`
	Status   Status `json:"status"`
	Content  string `json:"content"`
}

// Succeeded reports whether the invocation produced a successful result.
func (r *Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

// ToolCallResponse converts the result into a message part to feed back
// to the model.
func (r *Result) ToolCallResponse() llms.ToolCallResponse {
	return llms.ToolCallResponse{
		ToolCallID: r.CallID,
		Name:       r.ToolName,
		Content:    r.Content,
	}
}
