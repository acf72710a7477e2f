package sandbox_test

import (
	"context"
	"os/exec"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/effective-security/agentd/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
}

func Test_Run_Success(t *testing.T) {
	t.Parallel()
	requirePython(t)

	e := sandbox.NewExecutor()
	res, err := e.Run(context.Background(), `print("hello from sandbox")`, sandbox.Policy{})
	require.NoError(t, err)
	assert.Equal(t, sandbox.OutcomeSuccess, res.Outcome)
	assert.Equal(t, "hello from sandbox\n", res.Stdout)
	assert.Empty(t, res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
}

func Test_Run_AllowedImports(t *testing.T) {
	t.Parallel()
	requirePython(t)

	source := `
import json
import math
print(json.dumps({"pi": round(math.pi, 2)}))
`
	e := sandbox.NewExecutor()
	res, err := e.Run(context.Background(), source, sandbox.Policy{})
	require.NoError(t, err)
	assert.Equal(t, sandbox.OutcomeSuccess, res.Outcome)
	assert.Equal(t, "{\"pi\": 3.14}\n", res.Stdout)
}

func Test_Run_SnippetError(t *testing.T) {
	t.Parallel()
	requirePython(t)

	e := sandbox.NewExecutor()
	res, err := e.Run(context.Background(), `raise ValueError("nope")`, sandbox.Policy{})
	require.NoError(t, err)
	assert.Equal(t, sandbox.OutcomeExecutionError, res.Outcome)
	assert.Equal(t, 1, res.ExitCode)
	assert.Contains(t, res.Stderr, "ValueError: nope")
}

func Test_Run_DivisionByZero(t *testing.T) {
	t.Parallel()
	requirePython(t)

	e := sandbox.NewExecutor()
	res, err := e.Run(context.Background(), "print(15 / 0)", sandbox.Policy{})
	require.NoError(t, err)
	assert.Equal(t, sandbox.OutcomeExecutionError, res.Outcome)
	assert.Contains(t, res.Stderr, "ZeroDivisionError")
}

func Test_Run_StaticImportDenied(t *testing.T) {
	t.Parallel()

	// static inspection rejects before any subprocess is started, so no
	// interpreter is needed and no partial output can exist
	e := sandbox.NewExecutor()
	res, err := e.Run(context.Background(), "import os\nprint(\"never runs\")\n", sandbox.Policy{})
	require.NoError(t, err)
	assert.Equal(t, sandbox.OutcomeDisallowed, res.Outcome)
	assert.Contains(t, res.Detail, `module "os"`)
	assert.Empty(t, res.Stdout)
}

func Test_Run_DynamicImportDenied(t *testing.T) {
	t.Parallel()
	requirePython(t)

	e := sandbox.NewExecutor()
	res, err := e.Run(context.Background(), `__import__("socket")`, sandbox.Policy{})
	require.NoError(t, err)
	assert.Equal(t, sandbox.OutcomeExecutionError, res.Outcome)
	assert.Contains(t, res.Detail, "not permitted")
}

func Test_Run_NetworkDenied(t *testing.T) {
	t.Parallel()
	requirePython(t)

	source := `
import socket
s = socket.socket(socket.AF_INET, socket.SOCK_STREAM)
s.connect(("127.0.0.1", 9))
`
	pol := sandbox.Policy{
		AllowedImports: append(slices.Clone(sandbox.DefaultAllowedImports), "socket"),
	}
	e := sandbox.NewExecutor()
	res, err := e.Run(context.Background(), source, pol)
	require.NoError(t, err)
	assert.Equal(t, sandbox.OutcomeExecutionError, res.Outcome)
	assert.Contains(t, res.Detail, "not permitted")
}

func Test_Run_SubprocessDenied(t *testing.T) {
	t.Parallel()
	requirePython(t)

	source := `
import subprocess
subprocess.run(["ls"])
`
	pol := sandbox.Policy{
		AllowedImports: append(slices.Clone(sandbox.DefaultAllowedImports), "subprocess"),
	}
	e := sandbox.NewExecutor()
	res, err := e.Run(context.Background(), source, pol)
	require.NoError(t, err)
	assert.Equal(t, sandbox.OutcomeExecutionError, res.Outcome)
	assert.Contains(t, res.Detail, "not permitted")
}

func Test_Run_FileAccess(t *testing.T) {
	t.Parallel()
	requirePython(t)

	source := `
with open("out.txt", "w") as f:
    f.write("data")
print("wrote")
`
	e := sandbox.NewExecutor()

	res, err := e.Run(context.Background(), source, sandbox.Policy{})
	require.NoError(t, err)
	assert.Equal(t, sandbox.OutcomeExecutionError, res.Outcome)
	assert.Contains(t, res.Detail, "not permitted")

	res, err = e.Run(context.Background(), source, sandbox.Policy{AllowFileAccess: true})
	require.NoError(t, err)
	assert.Equal(t, sandbox.OutcomeSuccess, res.Outcome)
	assert.Equal(t, "wrote\n", res.Stdout)
}

func Test_Run_Timeout(t *testing.T) {
	t.Parallel()
	requirePython(t)

	source := `
print("started")
while True:
    pass
`
	e := sandbox.NewExecutor()
	started := time.Now()
	res, err := e.Run(context.Background(), source, sandbox.Policy{Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, sandbox.OutcomeTimeout, res.Outcome)
	assert.Contains(t, res.Stdout, "started")
	assert.Less(t, time.Since(started), 10*time.Second)
}

func Test_Run_MemoryExceeded(t *testing.T) {
	t.Parallel()
	requirePython(t)
	if runtime.GOOS != "linux" {
		t.Skip("RLIMIT_AS enforcement requires linux")
	}

	e := sandbox.NewExecutor()
	res, err := e.Run(context.Background(), "x = bytearray(1024 * 1024 * 1024)", sandbox.Policy{})
	require.NoError(t, err)
	assert.Equal(t, sandbox.OutcomeResourceExceeded, res.Outcome)
	assert.Contains(t, res.Detail, "memory limit")
}

func Test_Run_OutputTruncated(t *testing.T) {
	t.Parallel()
	requirePython(t)

	e := sandbox.NewExecutor()
	res, err := e.Run(context.Background(), `print("x" * 100000)`, sandbox.Policy{MaxOutputSize: 64})
	require.NoError(t, err)
	assert.Equal(t, sandbox.OutcomeSuccess, res.Outcome)
	assert.True(t, strings.HasSuffix(res.Stdout, sandbox.TruncationMarker))
	assert.Less(t, len(res.Stdout), 64+len(sandbox.TruncationMarker)+1)
}

func Test_Run_Cancellation(t *testing.T) {
	t.Parallel()
	requirePython(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	e := sandbox.NewExecutor()
	_, err := e.Run(ctx, "while True:\n    pass\n", sandbox.Policy{Timeout: time.Minute})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_Available(t *testing.T) {
	t.Parallel()

	e := sandbox.NewExecutor(sandbox.WithPython("definitely-not-a-python"))
	assert.Error(t, e.Available())
}
