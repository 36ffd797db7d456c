// Package schema turns annotated type descriptions into entity schemas that the
// generator renders into Move contracts and Go bindings.
package schema

const (
	DefaultModule = "sui_box_module"
	DefaultStruct = "Model"
)

// TargetType is a Move field type supported by the generator.
type TargetType int

const (
	String TargetType = iota
	Bool
	U8
	U16
	U32
	U64
)

var targetNames = map[TargetType]struct {
	move string
	goT  string
}{
	String: {"String", "string"},
	Bool:   {"bool", "bool"},
	U8:     {"u8", "uint8"},
	U16:    {"u16", "uint16"},
	U32:    {"u32", "uint32"},
	U64:    {"u64", "uint64"},
}

// Move returns the Move spelling of the type.
func (t TargetType) Move() string {
	if n, ok := targetNames[t]; ok {
		return n.move
	}
	return targetNames[String].move
}

// Go returns the type bindings use to hold values of t.
func (t TargetType) Go() string {
	if n, ok := targetNames[t]; ok {
		return n.goT
	}
	return targetNames[String].goT
}

func (t TargetType) String() string {
	return t.Move()
}

// Marker is the entity directive attached to a host type.
type Marker struct {
	Module string
	Struct string
}

// In-memory representation of a single field as the host declared it
type FieldDescription struct {
	Name string
	Type string
}

// TypeDescription is what a collector knows about one host type. Marker is nil
// when the type carries no entity directive.
type TypeDescription struct {
	Name    string // Host type name
	Package string // Host import path
	Marker  *Marker
	Fields  []FieldDescription
}

// FieldSpec is one field of an entity, in declaration order.
type FieldSpec struct {
	Name       string
	HostType   string
	TargetType TargetType
}

// EntitySchema is the generator input for one annotated type. It is never
// mutated after extraction.
type EntitySchema struct {
	ModuleName  string
	StructName  string
	HostName    string
	HostPackage string
	Fields      []FieldSpec
}
