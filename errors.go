package transient

import (
	"errors"
	"fmt"
)

var (
	// ErrLinkTarget indicates a linkTo target is missing or itself transient.
	ErrLinkTarget = errors.New("transient: link target does not exist or is itself transient")
	// ErrShadowCollision indicates a shadow slot name is already taken by a
	// schema path or by another transient field.
	ErrShadowCollision = errors.New("transient: shadow slot collides with an existing name")
)

// LinkError reports a transient field linked to a path that cannot accept a
// write interceptor.
type LinkError struct {
	Path   string
	Target string
	Err    error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("transient: cannot link transient field %q to %q: target does not exist or is itself transient", e.Path, e.Target)
}

func (e *LinkError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLinkTarget}
	}
	return []error{ErrLinkTarget, e.Err}
}

// CollisionError reports a shadow slot name that is already in use.
type CollisionError struct {
	Path string
	As   string
	With string
}

func (e *CollisionError) Error() string {
	if e.With == e.As {
		return fmt.Sprintf("transient: shadow slot %q of field %q collides with schema path %q", e.As, e.Path, e.With)
	}
	return fmt.Sprintf("transient: shadow slot %q of field %q is already used by field %q", e.As, e.Path, e.With)
}

func (e *CollisionError) Unwrap() error {
	return ErrShadowCollision
}
