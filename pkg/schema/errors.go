package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrPathNotFound indicates a path is neither persisted nor virtual.
	ErrPathNotFound = errors.New("schema: path not found")
	// ErrDuplicatePath indicates a field was declared twice.
	ErrDuplicatePath = errors.New("schema: duplicate path")
	// ErrValidation indicates a document failed validation.
	ErrValidation = errors.New("schema: validation failed")
)

// PathError reports an operation against an unknown path.
type PathError struct {
	Op   string
	Path string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("schema: %s %q: path not found", e.Op, e.Path)
}

func (e *PathError) Unwrap() error {
	return ErrPathNotFound
}

// CastError reports a value that could not be cast to its path type.
type CastError struct {
	Path  string
	Type  Type
	Value any
	Err   error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("schema: cast %T to %s for path %q: %v", e.Value, e.Type, e.Path, e.Err)
}

func (e *CastError) Unwrap() error {
	return e.Err
}

// ValidationError collects invalidated paths and their messages.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Errors) == 0 {
		return ErrValidation.Error()
	}
	paths := make([]string, 0, len(e.Errors))
	for path := range e.Errors {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	parts := make([]string, 0, len(paths))
	for _, path := range paths {
		parts = append(parts, fmt.Sprintf("%s: %s", path, e.Errors[path]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
