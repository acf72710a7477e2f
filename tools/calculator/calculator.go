// Package calculator provides basic arithmetic as a tool. Operands accept
// nested operations, so a compound expression evaluates in a single call.
package calculator

import (
	"context"
	"encoding/json"
	"reflect"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentd/pkg/llmutils"
	"github.com/effective-security/agentd/pkg/schema"
	"github.com/effective-security/agentd/tools"
)

const ToolName = "calculator"

// ErrDivisionByZero is returned when the divisor evaluates to zero.
var ErrDivisionByZero = errors.New("division by zero")

// Request is the calculator input. A and B take a number or a nested
// operation object of the same shape. Operand presence is checked at
// evaluation time, a literal zero is a valid operand.
type Request struct {
	Operation string `json:"operation" yaml:"operation" validate:"required,oneof=add subtract multiply divide" jsonschema:"title=Operation,description=One of add subtract multiply divide,enum=add,enum=subtract,enum=multiply,enum=divide"`
	A         any    `json:"a" yaml:"a" jsonschema:"title=A,description=First operand: a number or a nested operation."`
	B         any    `json:"b" yaml:"b" jsonschema:"title=B,description=Second operand: a number or a nested operation."`
}

// Result holds the evaluated value.
type Result struct {
	Result float64 `json:"result" yaml:"result" jsonschema:"title=Result,description=The evaluated value."`
}

func (r *Result) GetContent() string {
	return llmutils.ToJSON(r)
}

func (r *Result) String() string {
	return strconv.FormatFloat(r.Result, 'f', -1, 64)
}

// Tool evaluates arithmetic expressions.
type Tool struct {
	name        string
	description string
	funcParams  any
}

var _ tools.Tool[Request, Result] = (*Tool)(nil)

// New creates the calculator tool.
func New() (*Tool, error) {
	sc, err := schema.New(reflect.TypeOf(Request{}))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create schema")
	}
	tool := &Tool{
		name:        ToolName,
		description: "Performs basic mathematical operations: add, subtract, multiply, divide. Operands may be numbers or nested operations.",
		funcParams:  sc.Parameters,
	}
	return tool, nil
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

// Run evaluates the request, recursing into nested operands.
func (t *Tool) Run(_ context.Context, req *Request) (*Result, error) {
	val, err := eval(req.Operation, req.A, req.B)
	if err != nil {
		return nil, err
	}
	return &Result{Result: val}, nil
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

func eval(operation string, a, b any) (float64, error) {
	left, err := evalOperand("a", a)
	if err != nil {
		return 0, err
	}
	right, err := evalOperand("b", b)
	if err != nil {
		return 0, err
	}

	switch operation {
	case "add":
		return left + right, nil
	case "subtract":
		return left - right, nil
	case "multiply":
		return left * right, nil
	case "divide":
		if right == 0 {
			return 0, errors.WithStack(ErrDivisionByZero)
		}
		return left / right, nil
	default:
		return 0, errors.WithMessagef(tools.ErrInvalidInput, "unknown operation %q", operation)
	}
}

func evalOperand(name string, operand any) (float64, error) {
	switch val := operand.(type) {
	case nil:
		return 0, errors.WithMessagef(tools.ErrInvalidInput, "missing operand %q", name)
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, errors.WithMessagef(tools.ErrInvalidInput, "invalid number %q", val.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, errors.WithMessagef(tools.ErrInvalidInput, "invalid number %q", val)
		}
		return f, nil
	case map[string]any:
		var nested Request
		raw, err := json.Marshal(val)
		if err != nil {
			return 0, errors.WithStack(err)
		}
		if err := json.Unmarshal(raw, &nested); err != nil {
			return 0, errors.WithMessage(tools.ErrInvalidInput, "invalid nested operation")
		}
		return eval(nested.Operation, nested.A, nested.B)
	default:
		return 0, errors.WithMessagef(tools.ErrInvalidInput, "unsupported operand type %T", operand)
	}
}
