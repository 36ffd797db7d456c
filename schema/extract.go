package schema

import (
	"regexp"
	"strings"
)

// Directive is the comment prefix collectors look for.
const Directive = "suibox:entity"

// identityField is the UID field every generated struct starts with.
const identityField = "id"

var moveIdent = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$|^_[A-Za-z0-9_]+$`)

// moveKeywords are reserved by the Move 2024 grammar and cannot name a
// module, struct or field.
var moveKeywords = map[string]bool{
	"abort": true, "acquires": true, "as": true, "break": true, "const": true,
	"continue": true, "copy": true, "else": true, "enum": true, "false": true,
	"for": true, "friend": true, "fun": true, "has": true, "if": true,
	"let": true, "loop": true, "macro": true, "match": true, "module": true,
	"move": true, "mut": true, "native": true, "public": true, "return": true,
	"Self": true, "struct": true, "true": true, "type": true, "use": true,
	"while": true,
}

// FallbackPolicy decides what happens to host types the mapper does not know.
type FallbackPolicy int

const (
	// FallbackText maps unknown types to String.
	FallbackText FallbackPolicy = iota
	// RejectUnmapped fails extraction on unknown types.
	RejectUnmapped
)

type Extractor struct {
	Mapper Mapper
	Policy FallbackPolicy
}

// NewExtractor returns an extractor over the built-in table using the text
// fallback.
func NewExtractor() *Extractor {
	return &Extractor{Mapper: DefaultMapper(), Policy: FallbackText}
}

// IsIdentifier reports whether s is a valid Move identifier that is not a
// reserved word.
func IsIdentifier(s string) bool {
	return moveIdent.MatchString(s) && !moveKeywords[s]
}

// ParseMarker reads a directive line such as
// "suibox:entity module=foo struct=Bar". ok is false when the text carries no
// directive at all. Missing keys take their defaults.
func ParseMarker(text string) (*Marker, bool, error) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "/*"))
		line = strings.TrimPrefix(line, "@")
		if !strings.HasPrefix(line, Directive) {
			continue
		}
		rest := strings.TrimPrefix(line, Directive)
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue
		}

		m := &Marker{Module: DefaultModule, Struct: DefaultStruct}
		for _, kv := range strings.Fields(rest) {
			key, value, found := strings.Cut(kv, "=")
			if !found {
				return nil, true, schemaErrorf("", "malformed directive argument %q", kv)
			}
			value = strings.Trim(value, `"`)
			switch key {
			case "module":
				m.Module = value
			case "struct":
				m.Struct = value
			default:
				return nil, true, schemaErrorf("", "unknown directive argument %q", key)
			}
		}
		return m, true, nil
	}
	return nil, false, nil
}

// Extract builds the entity schema for one type description.
func (e *Extractor) Extract(desc TypeDescription) (EntitySchema, error) {
	if desc.Marker == nil {
		return EntitySchema{}, schemaErrorf(desc.Name, "type carries no %s directive", Directive)
	}
	if !IsIdentifier(desc.Marker.Module) {
		return EntitySchema{}, schemaErrorf(desc.Name, "invalid module name %q", desc.Marker.Module)
	}
	if !IsIdentifier(desc.Marker.Struct) {
		return EntitySchema{}, schemaErrorf(desc.Name, "invalid struct name %q", desc.Marker.Struct)
	}

	mapper := e.Mapper
	if mapper == nil {
		mapper = defaultMapper
	}

	out := EntitySchema{
		ModuleName:  desc.Marker.Module,
		StructName:  desc.Marker.Struct,
		HostName:    desc.Name,
		HostPackage: desc.Package,
		Fields:      make([]FieldSpec, 0, len(desc.Fields)),
	}

	seen := make(map[string]struct{}, len(desc.Fields))
	for _, f := range desc.Fields {
		if !IsIdentifier(f.Name) {
			return EntitySchema{}, schemaErrorf(desc.Name, "invalid field name %q", f.Name)
		}
		if f.Name == identityField {
			return EntitySchema{}, schemaErrorf(desc.Name, "field %q collides with the object identity field", f.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return EntitySchema{}, schemaErrorf(desc.Name, "duplicate field %q", f.Name)
		}
		seen[f.Name] = struct{}{}

		target, known := mapper.Lookup(f.Type)
		if !known {
			if e.Policy == RejectUnmapped {
				return EntitySchema{}, schemaErrorf(desc.Name, "field %q has unmapped type %q", f.Name, f.Type)
			}
			target = String
		}
		out.Fields = append(out.Fields, FieldSpec{Name: f.Name, HostType: f.Type, TargetType: target})
	}

	return out, nil
}

// ExtractAll extracts a batch, stopping at the first failure.
func (e *Extractor) ExtractAll(descs []TypeDescription) ([]EntitySchema, error) {
	out := make([]EntitySchema, 0, len(descs))
	for _, d := range descs {
		s, err := e.Extract(d)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Extract runs the default extractor.
func Extract(desc TypeDescription) (EntitySchema, error) {
	return NewExtractor().Extract(desc)
}
