// Package codeexec provides code execution as a tool, delegating to the
// sandbox and mapping each outcome onto the tool failure taxonomy.
package codeexec

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentd/pkg/llmutils"
	"github.com/effective-security/agentd/pkg/schema"
	"github.com/effective-security/agentd/sandbox"
	"github.com/effective-security/agentd/tools"
	"github.com/effective-security/x/values"
)

const ToolName = "code_execution"

// messageTail bounds how much captured output is folded into an error
// message fed back to the model.
const messageTail = 2048

// Request is the tool input.
type Request struct {
	Code     string `json:"code" yaml:"code" validate:"required" jsonschema:"title=Code,description=The Python source code to execute."`
	Language string `json:"language,omitempty" yaml:"language,omitempty" jsonschema:"title=Language,description=Programming language. Only python is supported.,enum=python"`
	Timeout  int    `json:"timeout,omitempty" yaml:"timeout,omitempty" validate:"omitempty,gte=1,lte=300" jsonschema:"title=Timeout,description=Optional timeout in seconds."`
}

// Tool executes Python snippets under the sandbox policy.
type Tool struct {
	name        string
	description string
	funcParams  any

	runner sandbox.Runner
	policy sandbox.Policy
}

var _ tools.Tool[Request, sandbox.Result] = (*Tool)(nil)

// New creates the code execution tool over the runner.
func New(runner sandbox.Runner) (*Tool, error) {
	sc, err := schema.New(reflect.TypeOf(Request{}))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create schema")
	}
	tool := &Tool{
		name:        ToolName,
		description: "Executes Python code snippets in a sandbox and returns stdout, stderr and the exit code. Only pure computation is allowed by default.",
		funcParams:  sc.Parameters,
		runner:      runner,
		policy:      sandbox.DefaultPolicy(),
	}
	return tool, nil
}

// WithPolicy overrides the execution policy.
func (t *Tool) WithPolicy(policy sandbox.Policy) *Tool {
	t.policy = policy.WithDefaults()
	return t
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Parameters() any {
	return t.funcParams
}

// Run executes the snippet. A per-request timeout may shorten the policy
// deadline, never extend it.
func (t *Tool) Run(ctx context.Context, req *Request) (*sandbox.Result, error) {
	language := strings.ToLower(values.StringsCoalesce(req.Language, "python"))
	if language != "python" {
		return nil, errors.WithMessagef(tools.ErrInvalidInput, "unsupported language %q, only python is supported", req.Language)
	}

	pol := t.policy
	if req.Timeout > 0 {
		if d := time.Duration(req.Timeout) * time.Second; d < pol.Timeout {
			pol.Timeout = d
		}
	}

	res, err := t.runner.Run(ctx, req.Code, pol)
	if err != nil {
		return nil, errors.WithMessage(err, "sandbox failure")
	}

	switch res.Outcome {
	case sandbox.OutcomeSuccess:
		return res, nil
	case sandbox.OutcomeDisallowed:
		return nil, errors.WithMessage(tools.ErrDisallowed, res.Detail)
	case sandbox.OutcomeTimeout:
		msg := res.Detail
		if res.Stdout != "" {
			msg += "; partial stdout: " + tail(res.Stdout)
		}
		return nil, errors.WithMessage(tools.ErrTimeout, msg)
	case sandbox.OutcomeResourceExceeded:
		return nil, errors.WithMessage(tools.ErrResourceExceeded, res.Detail)
	default:
		msg := res.Detail
		if out := tail(res.Stderr); out != "" && out != msg {
			msg += "\n" + out
		}
		return nil, errors.New(msg)
	}
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req Request
	if err := tools.UnmarshalInput(input, &req); err != nil {
		return "", err
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return llmutils.ToJSON(out), nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= messageTail {
		return s
	}
	return strings.ToValidUTF8(s[len(s)-messageTail:], "")
}
