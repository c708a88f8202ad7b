package ml

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCategory   = errors.New("unknown category")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrArityMismatch     = errors.New("one-hot arity mismatch")
	ErrCorruptArtifact   = errors.New("corrupt artifact")
)

// ArtifactLoadError reports a fitted artifact that is missing or unreadable.
// It is fatal at startup.
type ArtifactLoadError struct {
	Name string
	Path string
	Err  error
}

func (e *ArtifactLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load artifact %s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("load artifact %s (%s): %v", e.Name, e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error { return e.Err }

// EncodingError reports a categorical value outside a transformer's fitted vocabulary.
type EncodingError struct {
	Field string
	Value string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %s: %q: %v", e.Field, e.Value, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// InferenceError reports a failure while scaling or classifying a feature vector.
type InferenceError struct {
	Stage string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference %s: %v", e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
