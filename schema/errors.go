package schema

import (
	"errors"
	"fmt"
)

var ErrSchema = errors.New("schema error")

// SchemaError describes why a type description could not become an entity.
type SchemaError struct {
	Type string
	Msg  string
}

func (e *SchemaError) Error() string {
	if e == nil {
		return ""
	}
	if e.Type == "" {
		return fmt.Sprintf("%s: %s", ErrSchema.Error(), e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", ErrSchema.Error(), e.Type, e.Msg)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

func schemaErrorf(typeName string, format string, args ...any) error {
	return &SchemaError{Type: typeName, Msg: fmt.Sprintf(format, args...)}
}
