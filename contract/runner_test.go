package contract

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestExecRunner_CapturesOutput(t *testing.T) {
	sh := requireShell(t)
	dir := t.TempDir()

	out, err := ExecRunner{}.Run(context.Background(), Invocation{
		Executable: sh,
		Args:       []string{"-c", `echo out; echo err >&2; pwd; echo "$SUIBOX_TEST"; exit 3`},
		Dir:        dir,
		Env:        []string{"SUIBOX_TEST=hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.ExitCode)
	assert.Contains(t, string(out.Stdout), "out\n")
	assert.Contains(t, string(out.Stdout), "hello\n")
	assert.Equal(t, "err\n", string(out.Stderr))
}

func TestExecRunner_Timeout(t *testing.T) {
	sh := requireShell(t)

	start := time.Now()
	_, err := ExecRunner{}.Run(context.Background(), Invocation{
		Executable: sh,
		Args:       []string{"-c", "sleep 10 & sleep 10"},
		Timeout:    100 * time.Millisecond,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExecRunner{}.Run(ctx, Invocation{Executable: "sh", Args: []string{"-c", "true"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecRunner_StartFailure(t *testing.T) {
	out, err := ExecRunner{}.Run(context.Background(), Invocation{Executable: "/nonexistent/sui"})
	require.Error(t, err)
	assert.Equal(t, -1, out.ExitCode)
}

func TestInvocation_String(t *testing.T) {
	inv := Invocation{Executable: "sui", Args: []string{"move", "build", "--path", "/tmp/pkg"}}
	assert.Equal(t, "sui move build --path /tmp/pkg", inv.String())
}
