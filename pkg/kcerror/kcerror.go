// Package kcerror defines the closed set of error kinds returned by the
// keycard engine, and a concrete error type carrying one of them plus
// free-form info.
//
// Every fallible operation in pkg/algostring, pkg/keys, pkg/password,
// pkg/entry, and pkg/keycard returns a *kcerror.Error (wrapped as the
// standard error interface) rather than a dynamic, stringly-typed
// result object. Boundary failures (file IO, decode errors) are
// converted to ExceptionThrown rather than propagated raw.
package kcerror

import (
	"errors"
	"fmt"
)

// Kind is one of the canonical error kinds used throughout the engine.
type Kind string

const (
	BadData                   Kind = "BadData"
	BadParameterValue         Kind = "BadParameterValue"
	ResourceExists            Kind = "ResourceExists"
	ResourceNotFound          Kind = "ResourceNotFound"
	ExceptionThrown           Kind = "ExceptionThrown"
	InternalError             Kind = "InternalError"
	UnsupportedKeycardType    Kind = "UnsupportedKeycardType"
	UnsupportedEncryptionType Kind = "UnsupportedEncryptionType"
	UnsupportedHashType       Kind = "UnsupportedHashType"
	InvalidKeycard            Kind = "InvalidKeycard"
	NotCompliant              Kind = "NotCompliant"
	RequiredFieldMissing      Kind = "RequiredFieldMissing"
	SignatureMissing          Kind = "SignatureMissing"
	FeatureNotAvailable       Kind = "FeatureNotAvailable"
)

// Error is the concrete error value returned by keycard engine operations.
// Field holds the offending field or signature slot name when there is
// one (for example with RequiredFieldMissing, SignatureMissing,
// NotCompliant); it is empty otherwise.
type Error struct {
	Kind  Kind
	Info  string
	Field string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field %s)", e.Kind, e.Info, e.Field)
	}
	if e.Info != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Info)
	}
	return string(e.Kind)
}

// New constructs an *Error of the given kind with no offending field.
func New(kind Kind, info string) *Error {
	return &Error{Kind: kind, Info: info}
}

// NewField constructs an *Error of the given kind naming the offending
// field or signature slot.
func NewField(kind Kind, info, field string) *Error {
	return &Error{Kind: kind, Info: info, Field: field}
}

// Wrap converts a boundary error (IO, encoding) into an ExceptionThrown
// *Error, preserving the original message as Info.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return New(ExceptionThrown, err.Error())
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
