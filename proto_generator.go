package main

import (
	"fmt"

	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/jshufro/protoc-gen-suibox/schema"
)

func parseProtoMessageField(field *protogen.Field) schema.FieldDescription {
	out := schema.FieldDescription{Name: string(field.Desc.Name())}

	switch {
	case field.Desc.IsMap():
		out.Type = "map"
	case field.Desc.IsList():
		out.Type = "repeated " + kindName(field.Desc)
	default:
		out.Type = kindName(field.Desc)
	}
	return out
}

// Scalars go by their kind name, messages and enums by full name.
func kindName(fd protoreflect.FieldDescriptor) string {
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return string(fd.Message().FullName())
	case protoreflect.EnumKind:
		return string(fd.Enum().FullName())
	}
	return fd.Kind().String()
}

// parseProtoMessage returns the description of m, or nil when its leading
// comment carries no directive.
func parseProtoMessage(f *protogen.File, m *protogen.Message) (*schema.TypeDescription, error) {
	marker, ok, err := schema.ParseMarker(string(m.Comments.Leading))
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", f.Desc.Path(), m.Desc.FullName(), err)
	}
	if !ok {
		return nil, nil
	}

	out := &schema.TypeDescription{
		Name:    m.GoIdent.GoName,
		Package: string(f.GoImportPath),
		Marker:  marker,
		Fields:  make([]schema.FieldDescription, 0, len(m.Fields)),
	}
	for _, field := range m.Fields {
		if field.Oneof != nil && !field.Oneof.Desc.IsSynthetic() {
			return nil, fmt.Errorf("%s: %s: oneof field %s has no Move representation", f.Desc.Path(), m.Desc.FullName(), field.Desc.Name())
		}
		out.Fields = append(out.Fields, parseProtoMessageField(field))
	}
	return out, nil
}

// parseProto collects the annotated top-level messages of f in declaration
// order.
func parseProto(f *protogen.File) ([]schema.TypeDescription, error) {
	var out []schema.TypeDescription
	for _, m := range f.Messages {
		parsed, err := parseProtoMessage(f, m)
		if err != nil {
			return nil, err
		}
		if parsed != nil {
			out = append(out, *parsed)
		}
	}
	return out, nil
}
