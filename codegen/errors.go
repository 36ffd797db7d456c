package codegen

import (
	"errors"
	"fmt"
)

var ErrGeneration = errors.New("generation error")

// GenerationError reports a template, formatting or write failure for one
// artifact.
type GenerationError struct {
	Artifact string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Artifact == "" {
		return fmt.Sprintf("%s: %v", ErrGeneration.Error(), e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrGeneration.Error(), e.Artifact, e.Err)
}

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

func (e *GenerationError) Unwrap() error { return e.Err }

func generationErrorf(artifact string, format string, args ...any) error {
	return &GenerationError{Artifact: artifact, Err: fmt.Errorf(format, args...)}
}
