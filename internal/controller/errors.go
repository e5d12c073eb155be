// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package controller

import (
	"github.com/juju/errors"
)

// Kind classifies a Facade call failure. The engine's leaf retry does
// not look at the Kind (see Error.Retryable).
type Kind int

const (
	KindOther Kind = iota
	KindTransientConnection
	KindUnitError
	KindTimeout
	KindPermission
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindTransientConnection:
		return "transient-connection"
	case KindUnitError:
		return "unit-error"
	case KindTimeout:
		return "timeout"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not-found"
	default:
		return "other"
	}
}

// Error wraps a Facade failure with its Kind, its subject (application
// and/or unit, when applicable), and the underlying cause.
type Error struct {
	Kind        Kind
	Application string
	Unit        string
	cause       error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + ": "
	switch {
	case e.Unit != "":
		msg += e.Unit + ": "
	case e.Application != "":
		msg += e.Application + ": "
	}
	if e.cause != nil {
		msg += e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError constructs a Facade Error of the given kind, wrapping cause.
func NewError(kind Kind, application, unit string, cause error) *Error {
	return &Error{Kind: kind, Application: application, Unit: unit, cause: errors.Trace(cause)}
}

// Retryable reports whether this error is a transient controller
// connection failure. The engine does not consult it: a leaf tagged
// retryable is retried on any error except context cancellation or
// deadline expiry.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransientConnection
}
