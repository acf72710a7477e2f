package tools_test

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentd/chatmodel"
	"github.com/effective-security/agentd/tools"
	"github.com/stretchr/testify/assert"
)

func Test_ClassifyError(t *testing.T) {
	t.Parallel()

	tcases := []struct {
		name string
		err  error
		exp  tools.Status
	}{
		{"nil", nil, tools.StatusSuccess},
		{"not_found", errors.WithStack(tools.ErrToolNotFound), tools.StatusDisallowed},
		{"disabled", tools.ErrToolDisabled, tools.StatusDisallowed},
		{"disallowed", errors.WithMessage(tools.ErrDisallowed, "network"), tools.StatusDisallowed},
		{"timeout", tools.ErrTimeout, tools.StatusTimeout},
		{"deadline", context.DeadlineExceeded, tools.StatusTimeout},
		{"resource", tools.ErrResourceExceeded, tools.StatusResourceExceeded},
		{"invalid_input", tools.ErrInvalidInput, tools.StatusValidationError},
		{"unmarshal", chatmodel.ErrFailedUnmarshalInput, tools.StatusValidationError},
		{"generic", errors.New("boom"), tools.StatusExecutionError},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exp, tools.ClassifyError(tc.err))
		})
	}
}

func Test_Result(t *testing.T) {
	t.Parallel()

	res := &tools.Result{
		ToolName: "calculator",
		CallID:   "call-1",
		Status:   tools.StatusSuccess,
		Content:  `{"result":20}`,
	}
	assert.True(t, res.Succeeded())

	tr := res.ToolCallResponse()
	assert.Equal(t, "call-1", tr.ToolCallID)
	assert.Equal(t, "calculator", tr.Name)
	assert.Equal(t, `{"result":20}`, tr.Content)

	res.Status = tools.StatusTimeout
	assert.False(t, res.Succeeded())
}
