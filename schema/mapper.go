package schema

// Mapper is a lookup table from host type names to Move types.
type Mapper map[string]TargetType

var defaultMapper = Mapper{
	"string": String,
	"bool":   Bool,

	"int64":    U64,
	"uint64":   U64,
	"int":      U64,
	"uint":     U64,
	"sint64":   U64,
	"fixed64":  U64,
	"sfixed64": U64,

	"int32":    U32,
	"uint32":   U32,
	"sint32":   U32,
	"fixed32":  U32,
	"sfixed32": U32,

	"int16":  U16,
	"uint16": U16,

	"int8":  U8,
	"uint8": U8,
	"byte":  U8,
}

// DefaultMapper returns a copy of the built-in table.
func DefaultMapper() Mapper {
	out := make(Mapper, len(defaultMapper))
	for k, v := range defaultMapper {
		out[k] = v
	}
	return out
}

// With returns a copy of m where hostType maps to target.
func (m Mapper) With(hostType string, target TargetType) Mapper {
	out := make(Mapper, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[hostType] = target
	return out
}

// Lookup reports the Move type for hostType and whether the table knows it.
func (m Mapper) Lookup(hostType string) (TargetType, bool) {
	t, ok := m[hostType]
	return t, ok
}

// Map is total: unknown types become String.
func (m Mapper) Map(hostType string) TargetType {
	if t, ok := m[hostType]; ok {
		return t
	}
	return String
}

// MapType maps hostType with the built-in table.
func MapType(hostType string) TargetType {
	return defaultMapper.Map(hostType)
}
