package tools

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentd/pkg/llms"
	"github.com/effective-security/agentd/pkg/llmutils"
	"github.com/effective-security/agentd/pkg/metricskey"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentd", "tools")

// TruncationMarker is appended to tool output cut at the size bound.
const TruncationMarker = "\n... [output truncated]"

// InvokerOption configures the invoker.
type InvokerOption func(*Invoker)

// WithCallback adds a callback notified on every invocation.
func WithCallback(cb Callback) InvokerOption {
	return func(inv *Invoker) {
		inv.callbacks = append(inv.callbacks, cb)
	}
}

// WithMaxContentSize bounds the tool output size fed back to the model,
// zero means no bound.
func WithMaxContentSize(size int) InvokerOption {
	return func(inv *Invoker) {
		inv.maxContentSize = size
	}
}

// Invoker dispatches model tool calls against the registry and normalizes
// every outcome into a Result. It never raises a tool failure to the caller:
// lookup misses, invalid arguments, execution errors, timeouts and policy
// denials all come back as classified results.
type Invoker struct {
	registry       *Registry
	callbacks      []Callback
	maxContentSize int
}

// NewInvoker creates an invoker over the registry.
func NewInvoker(registry *Registry, ops ...InvokerOption) *Invoker {
	inv := &Invoker{
		registry: registry,
	}
	for _, op := range ops {
		op(inv)
	}
	return inv
}

// Registry returns the registry the invoker dispatches against.
func (inv *Invoker) Registry() *Registry {
	return inv.registry
}

// Invoke dispatches a single tool call and returns the normalized result.
func (inv *Invoker) Invoke(ctx context.Context, call llms.ToolCall) *Result {
	res := &Result{
		CallID: call.ID,
		Status: StatusExecutionError,
	}
	if call.FunctionCall == nil {
		res.Content = "malformed tool call: no function"
		return res
	}
	name := call.FunctionCall.Name
	res.ToolName = name

	desc, err := inv.registry.Lookup(name)
	if err != nil {
		// An unknown name is rejected the same way a disabled tool is.
		res.Status = StatusDisallowed
		res.Content = err.Error()
		metricskey.StatsToolCallsNotFound.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.WARNING,
			"tool", name,
			"status", res.Status,
		)
		return res
	}
	if !desc.Enabled {
		res.Status = StatusDisallowed
		res.Content = ErrToolDisabled.Error() + ": " + name
		metricskey.StatsToolCallsRejected.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.WARNING,
			"tool", name,
			"status", res.Status,
		)
		return res
	}

	args := call.FunctionCall.Arguments
	if len(desc.DefaultInputs) > 0 {
		merged, err := llmutils.MergeDefaults([]byte(args), desc.DefaultInputs)
		if err != nil {
			res.Status = StatusValidationError
			res.Content = err.Error()
			metricskey.StatsToolCallsRejected.IncrCounter(1, name)
			return res
		}
		args = string(merged)
	}

	if desc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, desc.Timeout)
		defer cancel()
	}

	started := time.Now()
	inv.onStart(ctx, desc.Tool, args)

	out, err := inv.safeCall(ctx, desc.Tool, args)
	metricskey.PerfToolCall.MeasureSince(started, name)

	if err != nil {
		res.Status = ClassifyError(err)
		res.Content = err.Error()
		if res.Status == StatusValidationError || res.Status == StatusDisallowed {
			metricskey.StatsToolCallsRejected.IncrCounter(1, name)
		} else {
			metricskey.StatsToolCallsFailed.IncrCounter(1, name)
		}
		inv.onError(ctx, desc.Tool, args, err)
		logger.ContextKV(ctx, xlog.WARNING,
			"tool", name,
			"status", res.Status,
			"err", err.Error(),
		)
		return res
	}

	res.Status = StatusSuccess
	res.Content = inv.bound(out)
	metricskey.StatsToolCallsSucceeded.IncrCounter(1, name)
	inv.onEnd(ctx, desc.Tool, args, res.Content)
	logger.ContextKV(ctx, xlog.DEBUG,
		"tool", name,
		"status", res.Status,
		"elapsed", time.Since(started).String(),
	)
	return res
}

// InvokeAll dispatches the calls sequentially in the order the model
// requested them and returns a result per call.
func (inv *Invoker) InvokeAll(ctx context.Context, calls []llms.ToolCall) []*Result {
	res := make([]*Result, 0, len(calls))
	for _, call := range calls {
		res = append(res, inv.Invoke(ctx, call))
	}
	return res
}

// safeCall shields the run loop from a panicking tool.
func (inv *Invoker) safeCall(ctx context.Context, tool ITool, args string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("tool %s panicked: %v", tool.Name(), r)
		}
	}()
	return tool.Call(ctx, args)
}

func (inv *Invoker) bound(out string) string {
	if inv.maxContentSize > 0 && len(out) > inv.maxContentSize {
		return strings.ToValidUTF8(out[:inv.maxContentSize], "") + TruncationMarker
	}
	return out
}

func (inv *Invoker) onStart(ctx context.Context, tool ITool, input string) {
	for _, cb := range inv.callbacks {
		cb.OnToolStart(ctx, tool, input)
	}
}

func (inv *Invoker) onEnd(ctx context.Context, tool ITool, input, output string) {
	for _, cb := range inv.callbacks {
		cb.OnToolEnd(ctx, tool, input, output)
	}
}

func (inv *Invoker) onError(ctx context.Context, tool ITool, input string, err error) {
	for _, cb := range inv.callbacks {
		cb.OnToolError(ctx, tool, input, err)
	}
}
