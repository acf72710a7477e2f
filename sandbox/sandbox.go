// Package sandbox runs untrusted Python snippets in a subprocess under an
// enforced resource policy. Timeouts and cancellation kill the process from
// the host side; memory limits and capability denial are armed inside the
// subprocess by an embedded harness, never by cooperative checks in the
// executed code.
package sandbox

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentd/pkg/metricskey"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentd", "sandbox")

//go:embed harness.py
var harnessSource string

// Harness exit codes, see harness.py.
const (
	exitCapabilityDenied = 73
	exitMemoryExceeded   = 77
	exitHarnessFault     = 70
)

// Outcome classifies one execution. Exactly one outcome per run; no run
// is both a success and a failure kind.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeExecutionError   Outcome = "execution_error"
	OutcomeTimeout          Outcome = "timeout"
	OutcomeResourceExceeded Outcome = "resource_exceeded"
	OutcomeDisallowed       Outcome = "disallowed"
)

// Result is the structured outcome of one execution. Stdout and stderr
// hold whatever was captured before the run finished or was killed, size
// bounded by the policy.
type Result struct {
	Outcome    Outcome `json:"outcome"`
	Stdout     string  `json:"stdout,omitempty"`
	Stderr     string  `json:"stderr,omitempty"`
	ExitCode   int     `json:"exit_code"`
	Detail     string  `json:"detail,omitempty"`
	DurationMs int64   `json:"duration_ms"`
}

// Runner executes one source unit under a policy.
type Runner interface {
	Run(ctx context.Context, source string, pol Policy) (*Result, error)
}

// Option configures the executor.
type Option func(*Executor)

// WithPython overrides the interpreter binary, default python3.
func WithPython(python string) Option {
	return func(e *Executor) {
		e.python = python
	}
}

// Executor implements Runner over a python subprocess. It is stateless
// and safe for concurrent use; each run gets a private temp directory.
type Executor struct {
	python string
}

// NewExecutor creates a subprocess executor.
func NewExecutor(ops ...Option) *Executor {
	e := &Executor{
		python: "python3",
	}
	for _, op := range ops {
		op(e)
	}
	return e
}

// Available reports whether the configured interpreter can be found.
func (e *Executor) Available() error {
	_, err := exec.LookPath(e.python)
	return errors.WithStack(err)
}

type harnessPolicy struct {
	MemoryMB        int      `json:"memory_mb"`
	AllowedImports  []string `json:"allowed_imports"`
	AllowSubprocess bool     `json:"allow_subprocess"`
	AllowFileAccess bool     `json:"allow_file_access"`
	AllowNetwork    bool     `json:"allow_network"`
}

// Run executes the source under the policy. The returned error covers
// host-side faults only; every execution outcome, including failures of
// the snippet itself, comes back inside the Result.
func (e *Executor) Run(ctx context.Context, source string, pol Policy) (*Result, error) {
	pol = pol.WithDefaults()
	started := time.Now()

	if err := CheckImports(source, pol.AllowedImports); err != nil {
		res := &Result{
			Outcome: OutcomeDisallowed,
			Detail:  err.Error(),
		}
		e.observe(ctx, res, started)
		return res, nil
	}

	dir, err := os.MkdirTemp("", "agentd-sandbox-")
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create sandbox dir")
	}
	defer os.RemoveAll(dir)

	harnessPath := filepath.Join(dir, "harness.py")
	if err := os.WriteFile(harnessPath, []byte(harnessSource), 0o600); err != nil {
		return nil, errors.WithMessage(err, "failed to write harness")
	}
	snippetPath := filepath.Join(dir, "snippet.py")
	if err := os.WriteFile(snippetPath, []byte(source), 0o600); err != nil {
		return nil, errors.WithMessage(err, "failed to write snippet")
	}

	cfg, err := json.Marshal(harnessPolicy{
		MemoryMB:        pol.MemoryLimitMB,
		AllowedImports:  pol.AllowedImports,
		AllowSubprocess: pol.AllowSubprocess,
		AllowFileAccess: pol.AllowFileAccess,
		AllowNetwork:    pol.AllowNetwork,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	runCtx := ctx
	if pol.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, pol.Timeout)
		defer cancel()
	}

	stdout := newBoundedBuffer(pol.MaxOutputSize)
	stderr := newBoundedBuffer(pol.MaxOutputSize)

	// -I isolates from the user environment, -S skips site packages,
	// -u keeps output unbuffered so a killed run still yields partial
	// output, -X utf8 pins the IO encoding.
	cmd := exec.CommandContext(runCtx, e.python, "-I", "-S", "-u", "-X", "utf8", harnessPath, string(cfg), snippetPath)
	cmd.Dir = dir
	cmd.Env = []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + dir,
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = 2 * time.Second

	runErr := cmd.Run()

	res := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if state := cmd.ProcessState; state != nil {
		res.ExitCode = state.ExitCode()
	}

	switch {
	case runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil:
		res.Outcome = OutcomeTimeout
		res.Detail = fmt.Sprintf("timed out after %s", pol.Timeout)
	case ctx.Err() != nil:
		// request-level cancellation reuses the kill path
		return nil, errors.WithStack(ctx.Err())
	case runErr == nil:
		res.Outcome = OutcomeSuccess
	default:
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, errors.WithMessagef(runErr, "failed to execute %s", e.python)
		}
		switch res.ExitCode {
		case exitMemoryExceeded:
			res.Outcome = OutcomeResourceExceeded
			res.Detail = lastLine(res.Stderr)
		case exitCapabilityDenied, exitHarnessFault:
			res.Outcome = OutcomeExecutionError
			res.Detail = lastLine(res.Stderr)
		case -1:
			res.Outcome = OutcomeExecutionError
			res.Detail = "terminated by signal"
		default:
			res.Outcome = OutcomeExecutionError
			res.Detail = fmt.Sprintf("exited with status %d", res.ExitCode)
		}
	}

	e.observe(ctx, res, started)
	return res, nil
}

func (e *Executor) observe(ctx context.Context, res *Result, started time.Time) {
	res.DurationMs = time.Since(started).Milliseconds()
	metricskey.StatsSandboxExecutions.IncrCounter(1, string(res.Outcome))
	metricskey.PerfSandboxExec.MeasureSince(started, string(res.Outcome))
	logger.ContextKV(ctx, xlog.DEBUG,
		"outcome", res.Outcome,
		"exit_code", res.ExitCode,
		"elapsed", time.Since(started).String(),
	)
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\n")
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	}
	return strings.TrimSpace(s)
}
