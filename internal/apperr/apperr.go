// Package apperr defines the error kinds returned by the service layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a service error.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindCapacity      Kind = "capacity"
	KindNotFound      Kind = "not_found"
	KindBackend       Kind = "backend"
)

// Error is a classified service error. Err, when set, is the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindBackend {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports a missing or invalid field.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Authorization reports that the caller lacks ownership or admin capability.
func Authorization(format string, args ...any) error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// Capacity reports that an event has no free places.
func Capacity(format string, args ...any) error {
	return &Error{Kind: KindCapacity, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports that the referenced record does not exist.
func NotFound(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

// Backend wraps a record store, queue or storage failure.
func Backend(op string, err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindBackend, Message: op, Err: err}
}

// KindOf returns the kind of err, or KindBackend for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindBackend
}

func IsValidation(err error) bool    { return err != nil && KindOf(err) == KindValidation }
func IsAuthorization(err error) bool { return err != nil && KindOf(err) == KindAuthorization }
func IsCapacity(err error) bool      { return err != nil && KindOf(err) == KindCapacity }
func IsNotFound(err error) bool      { return err != nil && KindOf(err) == KindNotFound }
func IsBackend(err error) bool       { return err != nil && KindOf(err) == KindBackend }
