package contract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBuildTimeout            = errors.New("build timed out")
	ErrBuildFailed             = errors.New("build failed")
	ErrInvalidArgument         = errors.New("invalid argument")
	ErrUnsupportedArgumentType = errors.New("unsupported argument type")
	ErrCallTimeout             = errors.New("call timed out")
	ErrCallFailed              = errors.New("call failed")
	ErrMalformedOutput         = errors.New("malformed output")
	ErrTransactionFailed       = errors.New("transaction failed")
	ErrMissingDigest           = errors.New("missing digest")
	ErrNoPackageID             = errors.New("no package id")
	ErrRPC                     = errors.New("rpc error")
	ErrObjectNotFound          = errors.New("object not found")
	ErrPublishAPI              = errors.New("publish rejected by api")
	ErrPublishUnexpected       = errors.New("publish failed unexpectedly")
	ErrUnsupportedToolchain    = errors.New("unsupported toolchain")
)

// CommandError is a child process that could not start, timed out or exited
// non-zero. Kind is ErrBuildTimeout, ErrBuildFailed, ErrCallTimeout or
// ErrCallFailed.
type CommandError struct {
	Kind     error
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind.Error(), e.Command)
	switch {
	case e.Err != nil:
		fmt.Fprintf(&b, ": %v", e.Err)
	case e.ExitCode != 0:
		fmt.Fprintf(&b, ": exit code %d", e.ExitCode)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		fmt.Fprintf(&b, "\nstderr: %s", s)
	}
	if s := strings.TrimSpace(e.Stdout); s != "" && e.ExitCode != 0 {
		fmt.Fprintf(&b, "\nstdout: %s", s)
	}
	return b.String()
}

func (e *CommandError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// OutputError is command output the pipeline could not interpret. Raw holds
// the text that failed.
type OutputError struct {
	Kind error
	Msg  string
	Raw  string
}

func (e *OutputError) Error() string {
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Raw != "" {
		msg += "\noutput: " + e.Raw
	}
	return msg
}

func (e *OutputError) Unwrap() error { return e.Kind }

// TransactionError is a transaction the network executed with a status other
// than success.
type TransactionError struct {
	Digest string
	Status string
	Reason string
}

func (e *TransactionError) Error() string {
	msg := fmt.Sprintf("%s: status %q", ErrTransactionFailed.Error(), e.Status)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Digest != "" {
		msg += " (digest " + e.Digest + ")"
	}
	return msg
}

func (e *TransactionError) Unwrap() error { return ErrTransactionFailed }

// RPCError is a failed JSON-RPC exchange. StatusCode and Body are set when the
// node answered with a non-2xx status; Code and Message when it answered with
// a JSON-RPC error object.
type RPCError struct {
	Method     string
	StatusCode int
	Body       string
	Code       int
	Message    string
	Err        error
}

func (e *RPCError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s: http %d: %s", ErrRPC.Error(), e.Method, e.StatusCode, e.Body)
	case e.Code != 0:
		return fmt.Sprintf("%s: %s: code %d: %s", ErrRPC.Error(), e.Method, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", ErrRPC.Error(), e.Method, e.Err)
}

func (e *RPCError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRPC}
	}
	return []error{ErrRPC, e.Err}
}

// ArgumentError rejects a call before any process starts. Index is -1 when
// the problem is not a positional argument.
type ArgumentError struct {
	Kind  error
	Index int
	Type  string
	Msg   string
}

func (e *ArgumentError) Error() string {
	switch {
	case e.Index < 0:
		return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
	case e.Type != "":
		return fmt.Sprintf("%s at index %d: %s", e.Kind.Error(), e.Index, e.Type)
	}
	return fmt.Sprintf("%s at index %d: %s", e.Kind.Error(), e.Index, e.Msg)
}

func (e *ArgumentError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &ArgumentError{Kind: ErrInvalidArgument, Index: -1, Msg: fmt.Sprintf(format, args...)}
}

// PublishError is the single failure value of the SDK publish path. Kind is
// ErrPublishAPI when the node rejected the request, with its Code and Message,
// and ErrPublishUnexpected for everything else.
type PublishError struct {
	Kind    error
	Sender  string
	Gas     string
	Code    int
	Message string
	Data    any
	Err     error
}

func (e *PublishError) Error() string {
	msg := fmt.Sprintf("%s (sender %s, gas object %s)", e.Kind.Error(), e.Sender, e.Gas)
	if e.Kind == ErrPublishAPI {
		msg += fmt.Sprintf(": code %d: %s", e.Code, e.Message)
		if e.Data != nil {
			msg += fmt.Sprintf(": %v", e.Data)
		}
		return msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PublishError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
