package codegen

import (
	"os"
	"path/filepath"
)

// Destination receives generated artifacts.
type Destination interface {
	Write(a Artifact) error
}

// DestinationFunc adapts a function to Destination.
type DestinationFunc func(a Artifact) error

func (f DestinationFunc) Write(a Artifact) error { return f(a) }

// DirDestination writes artifacts below Root, creating directories as needed.
type DirDestination struct {
	Root string
}

func (d DirDestination) Write(a Artifact) error {
	target := filepath.Join(d.Root, filepath.FromSlash(a.Path))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return generationErrorf(a.Path, "failed creating output directory: %w", err)
	}
	if err := os.WriteFile(target, []byte(a.Content), 0o644); err != nil {
		return generationErrorf(a.Path, "failed writing output %s: %w", target, err)
	}
	return nil
}

// Router sends contract sources and Go files to different places. A nil
// Contract destination falls back to Go.
type Router struct {
	Contract Destination
	Go       Destination
}

func (r Router) Write(a Artifact) error {
	if a.Kind == ContractSource && r.Contract != nil {
		return r.Contract.Write(a)
	}
	return r.Go.Write(a)
}

// ResolveDestination applies the output precedence: an explicit override
// directory always wins over the toolchain destination.
func ResolveDestination(override string, toolchain Destination) Destination {
	if override != "" {
		return DirDestination{Root: override}
	}
	return toolchain
}

// Emit writes every artifact in order and stops at the first failure.
func Emit(dst Destination, artifacts []Artifact) error {
	for _, a := range artifacts {
		if err := dst.Write(a); err != nil {
			if _, ok := err.(*GenerationError); ok {
				return err
			}
			return &GenerationError{Artifact: a.Path, Err: err}
		}
	}
	return nil
}
