/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package ierr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error is the concrete type behind every taxonomy kind. Construction always
// goes through New/Newf/Wrap so the stack trace is captured at the point of
// failure, not at some later logging call.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Kind() Kind { return e.kind }

// New builds a stack-traced Error of the given kind with a plain message.
func New(k Kind, msg string) error {
	return errors.WithStack(&Error{kind: k, msg: msg})
}

// Newf builds a stack-traced Error of the given kind with a formatted message.
func Newf(k Kind, format string, args ...any) error {
	return errors.WithStack(&Error{kind: k, msg: fmt.Sprintf(format, args...)})
}

// Wrap attaches a kind and stack trace to an existing error (e.g. one
// returned by net or os), preserving it as the unwrap chain's cause.
func Wrap(k Kind, cause error, msg string) error {
	if cause == nil {
		return nil
	}
	return errors.WithStack(&Error{kind: k, msg: msg, cause: cause})
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, k Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.kind == k
}

// KindOf extracts the taxonomy kind from err, ok=false if err isn't (and
// doesn't wrap) an *Error.
func KindOf(err error) (k Kind, ok bool) {
	var e *Error
	if !errors.As(err, &e) {
		return 0, false
	}
	return e.kind, true
}
