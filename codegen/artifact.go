// Package codegen renders entity schemas into Move sources, Go bindings and
// the binding registry.
package codegen

// Kind identifies what an artifact holds.
type Kind int

const (
	ContractSource Kind = iota
	HostBinding
	Registry
)

func (k Kind) String() string {
	switch k {
	case ContractSource:
		return "contract"
	case HostBinding:
		return "binding"
	case Registry:
		return "registry"
	}
	return "unknown"
}

// Artifact is one generated file. Path is slash separated and relative to the
// destination root.
type Artifact struct {
	Kind    Kind
	Path    string
	Content string
}
