// Package vdberr defines the engine's typed error taxonomy.
//
// Every engine operation returns either a typed result or one of the errors
// declared here, each of which maps to a stable wire code (spec §6). No
// engine operation panics on user input; a panic anywhere in this codebase
// indicates a bug, not bad input.
package vdberr

import (
	"errors"
	"fmt"
)

// Code is the stable integer code sent over the wire for a given error kind.
type Code int

const (
	CodeStoreNotFound Code = iota + 1
	CodeStoreAlreadyExists
	CodePredicateNotFound
	CodeNonLinearIndexNotFound
	CodeStoreDimensionMismatch
	CodeInvalidArgument
	CodeInternal
)

// Error is the engine's single error type. It carries a stable wire Code and
// a human-readable Message that names the offending identifier (store name,
// metadata key, dimensions, ...).
type Error struct {
	Code    Code
	Message string
	// Identifier is the offending name (store, metadata key, algorithm) when
	// applicable; kept separate from Message so callers can match on it
	// without parsing the message.
	Identifier string
}

func (e *Error) Error() string {
	if e.Identifier != "" {
		return fmt.Sprintf("%s: %s", e.Identifier, e.Message)
	}
	return e.Message
}

// Is lets errors.Is match on Code so callers can test kind without a type
// assertion: errors.Is(err, vdberr.StoreNotFound("x")).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

func StoreNotFound(name string) error {
	return &Error{Code: CodeStoreNotFound, Message: "store not found", Identifier: name}
}

func StoreAlreadyExists(name string) error {
	return &Error{Code: CodeStoreAlreadyExists, Message: "store already exists", Identifier: name}
}

func PredicateNotFound(key string) error {
	return &Error{Code: CodePredicateNotFound, Message: "predicate index not found", Identifier: key}
}

func NonLinearIndexNotFound(algorithm string) error {
	return &Error{Code: CodeNonLinearIndexNotFound, Message: "non-linear index not found", Identifier: algorithm}
}

func DimensionMismatch(store string, want, got int) error {
	return &Error{
		Code:       CodeStoreDimensionMismatch,
		Message:    fmt.Sprintf("dimension mismatch: want %d got %d", want, got),
		Identifier: store,
	}
}

func InvalidArgument(msg string) error {
	return &Error{Code: CodeInvalidArgument, Message: msg}
}

func Internal(msg string) error {
	return &Error{Code: CodeInternal, Message: msg}
}

// As is a convenience wrapper around errors.As for *Error.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the wire code for err, or CodeInternal if err is not one of
// ours — every unexpected error is surfaced as internal rather than leaking
// an unstable shape across the wire.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeInternal
}
