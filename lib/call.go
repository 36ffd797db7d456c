// Package lib is the runtime used by generated bindings: the call contract the
// orchestrator satisfies and the registry that turns struct names into bound
// instances.
package lib

import "context"

// Call describes one entry-function invocation on a published package.
type Call struct {
	Module   string
	Function string
	Args     []any

	// WorkingDir is where the client binary runs. Empty means the current
	// directory.
	WorkingDir string

	// PackageID selects the package. Empty means the caller's own package.
	PackageID string

	// AssignAndTransfer sends the function's result to TransferTo.
	AssignAndTransfer bool
	TransferTo        string
	AssignName        string
}

// Caller submits move calls and returns the transaction digest.
type Caller interface {
	MoveCall(ctx context.Context, call Call) (string, error)
}

// CallOptions are the per-call settings generated Create functions accept.
type CallOptions struct {
	WorkingDir string
	PackageID  string
	TransferTo string
}
