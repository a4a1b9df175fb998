// Package apperr defines the error taxonomy shared across propdoc packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateName  = errors.New("duplicate property name")
	ErrNoRootProperty = errors.New("no root property")
)

// MalformedMarkupError reports a generated fragment that is not well-formed
// markup. It always indicates a renderer bug and is not retryable.
type MalformedMarkupError struct {
	Fragment string
	Err      error
}

func (e *MalformedMarkupError) Error() string {
	return fmt.Sprintf("malformed markup: %v", e.Err)
}

func (e *MalformedMarkupError) Unwrap() error { return e.Err }

// IOFailure reports a failed write of the generated document.
type IOFailure struct {
	Path string
	Err  error
}

func (e *IOFailure) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *IOFailure) Unwrap() error { return e.Err }
