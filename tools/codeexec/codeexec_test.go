package codeexec_test

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/effective-security/agentd/sandbox"
	"github.com/effective-security/agentd/tools"
	"github.com/effective-security/agentd/tools/codeexec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	lastSource string
	lastPolicy sandbox.Policy
	res        *sandbox.Result
	err        error
}

func (f *fakeRunner) Run(_ context.Context, source string, pol sandbox.Policy) (*sandbox.Result, error) {
	f.lastSource = source
	f.lastPolicy = pol
	return f.res, f.err
}

func Test_Tool(t *testing.T) {
	runner := &fakeRunner{
		res: &sandbox.Result{
			Outcome:    sandbox.OutcomeSuccess,
			Stdout:     "hello\n",
			DurationMs: 5,
		},
	}
	tool, err := codeexec.New(runner)
	require.NoError(t, err)
	assert.Equal(t, "code_execution", tool.Name())
	assert.NotEmpty(t, tool.Description())
	assert.NotNil(t, tool.Parameters())

	ctx := context.Background()
	res, err := tool.Call(ctx, `{"code": "print('hello')"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"outcome":"success","stdout":"hello\n","exit_code":0,"duration_ms":5}`, res)
	assert.Equal(t, "print('hello')", runner.lastSource)

	_, err = tool.Call(ctx, "not json")
	assert.EqualError(t, err, "failed to unmarshal input: check the schema and try again")
}

func Test_Tool_Language(t *testing.T) {
	runner := &fakeRunner{res: &sandbox.Result{Outcome: sandbox.OutcomeSuccess}}
	tool, err := codeexec.New(runner)
	require.NoError(t, err)

	ctx := context.Background()

	// case-insensitive
	_, err = tool.Run(ctx, &codeexec.Request{Code: "1 + 1", Language: "Python"})
	require.NoError(t, err)

	_, err = tool.Run(ctx, &codeexec.Request{Code: "1 + 1", Language: "javascript"})
	require.Error(t, err)
	assert.ErrorIs(t, err, tools.ErrInvalidInput)
	assert.Contains(t, err.Error(), "javascript")
	assert.Equal(t, tools.StatusValidationError, tools.ClassifyError(err))
}

func Test_Tool_Validation(t *testing.T) {
	tool, err := codeexec.New(&fakeRunner{})
	require.NoError(t, err)

	_, err = tool.Call(context.Background(), `{"language": "python"}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, tools.ErrInvalidInput)
	assert.Contains(t, err.Error(), `"code"`)
}

func Test_Tool_TimeoutCap(t *testing.T) {
	runner := &fakeRunner{res: &sandbox.Result{Outcome: sandbox.OutcomeSuccess}}
	tool, err := codeexec.New(runner)
	require.NoError(t, err)
	tool = tool.WithPolicy(sandbox.Policy{Timeout: 10 * time.Second})

	ctx := context.Background()

	_, err = tool.Run(ctx, &codeexec.Request{Code: "pass", Timeout: 2})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, runner.lastPolicy.Timeout)

	// a request cannot extend the configured deadline
	_, err = tool.Run(ctx, &codeexec.Request{Code: "pass", Timeout: 60})
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, runner.lastPolicy.Timeout)
}

func Test_Tool_Outcomes(t *testing.T) {
	ctx := context.Background()

	tcases := []struct {
		name     string
		res      *sandbox.Result
		status   tools.Status
		contains []string
	}{
		{
			name: "disallowed",
			res: &sandbox.Result{
				Outcome: sandbox.OutcomeDisallowed,
				Detail:  `module "socket": import not allowed`,
			},
			status:   tools.StatusDisallowed,
			contains: []string{`module "socket"`},
		},
		{
			name: "timeout",
			res: &sandbox.Result{
				Outcome: sandbox.OutcomeTimeout,
				Stdout:  "tick 1\ntick 2\n",
				Detail:  "timed out after 1s",
			},
			status:   tools.StatusTimeout,
			contains: []string{"timed out after 1s", "partial stdout", "tick 2"},
		},
		{
			name: "resource exceeded",
			res: &sandbox.Result{
				Outcome: sandbox.OutcomeResourceExceeded,
				Detail:  "memory limit exceeded (256 MB)",
			},
			status:   tools.StatusResourceExceeded,
			contains: []string{"memory limit exceeded"},
		},
		{
			name: "execution error",
			res: &sandbox.Result{
				Outcome:  sandbox.OutcomeExecutionError,
				Stderr:   "Traceback (most recent call last):\nZeroDivisionError: division by zero",
				ExitCode: 1,
				Detail:   "ZeroDivisionError: division by zero",
			},
			status:   tools.StatusExecutionError,
			contains: []string{"ZeroDivisionError", "Traceback"},
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			tool, err := codeexec.New(&fakeRunner{res: tc.res})
			require.NoError(t, err)

			_, err = tool.Call(ctx, `{"code": "snippet"}`)
			require.Error(t, err)
			assert.Equal(t, tc.status, tools.ClassifyError(err))
			for _, want := range tc.contains {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func Test_Tool_RunnerFault(t *testing.T) {
	tool, err := codeexec.New(&fakeRunner{err: context.Canceled})
	require.NoError(t, err)

	_, err = tool.Call(context.Background(), `{"code": "pass"}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_Tool_Sandbox(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not installed")
	}

	tool, err := codeexec.New(sandbox.NewExecutor())
	require.NoError(t, err)

	res, err := tool.Call(context.Background(), `{"code": "print(15 / 3 * 4)"}`)
	require.NoError(t, err)
	assert.Contains(t, res, `"stdout":"20.0\n"`)
}
