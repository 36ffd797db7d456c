package contract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Invocation is one child process run.
type Invocation struct {
	Executable string
	Args       []string
	Dir        string
	Env        []string
	Timeout    time.Duration
}

func (i Invocation) String() string {
	return strings.Join(append([]string{i.Executable}, i.Args...), " ")
}

// Output is what a finished process produced.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes invocations. A non-zero exit is reported in Output, not as
// an error. Errors mean the process could not start or was stopped; a stop
// caused by the invocation timeout wraps context.DeadlineExceeded.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Output, error)
}

// ExecRunner runs invocations as real processes. The child inherits the
// current environment plus Invocation.Env.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, inv Invocation) (Output, error) {
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return Output{ExitCode: -1}, err
	}

	cmd := exec.Command(inv.Executable, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = append(os.Environ(), inv.Env...)
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Output{ExitCode: -1}, fmt.Errorf("failed to start %s: %w", inv.Executable, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var err error
	select {
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		return Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: -1}, fmt.Errorf("%s stopped: %w", inv.Executable, ctx.Err())
	case err = <-done:
	}

	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			out.ExitCode = -1
			return out, fmt.Errorf("failed to execute %s: %w", inv.Executable, err)
		}
		out.ExitCode = exitErr.ExitCode()
	}
	return out, nil
}
