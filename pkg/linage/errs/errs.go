// Package errs defines the error taxonomy shared across the engine's
// components: a small set of kinds, a single wrapping type, and Is*
// predicates callers use instead of matching on string content.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for callers that need to branch on failure mode
// without inspecting message text.
type Kind int

const (
	// Unknown is the zero value; never returned by this package's own
	// constructors.
	Unknown Kind = iota
	InvalidInput
	NotFound
	Conflict
	Unresolved
	Cancelled
	IoError
	Corruption
	TransactionAborted
	UniqueViolation
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Unresolved:
		return "unresolved"
	case Cancelled:
		return "cancelled"
	case IoError:
		return "io_error"
	case Corruption:
		return "corruption"
	case TransactionAborted:
		return "transaction_aborted"
	case UniqueViolation:
		return "unique_violation"
	default:
		return "unknown"
	}
}

// Error is the single error type produced by this module's packages.
// Component is the package that raised it (e.g. "blobstore", "metadata"),
// Subject is whatever the error is about (a digest, a path, a branch name).
type Error struct {
	Kind      Kind
	Component string
	Subject   string
	Err       error
}

func (e *Error) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("%s: %s: %v", e.Component, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s %q: %v", e.Component, e.Kind, e.Subject, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs an Error. err may be nil, in which case the Kind's String
// form is used as the underlying message.
func New(kind Kind, component, subject string, err error) *Error {
	if err == nil {
		err = errors.New(kind.String())
	}
	return &Error{Kind: kind, Component: component, Subject: subject, Err: err}
}

// Is reports whether err (or anything it wraps) is an *Error of kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func IsNotFound(err error) bool           { return Is(err, NotFound) }
func IsInvalidInput(err error) bool       { return Is(err, InvalidInput) }
func IsConflict(err error) bool           { return Is(err, Conflict) }
func IsUnresolved(err error) bool         { return Is(err, Unresolved) }
func IsCancelled(err error) bool          { return Is(err, Cancelled) }
func IsIoError(err error) bool            { return Is(err, IoError) }
func IsCorruption(err error) bool         { return Is(err, Corruption) }
func IsTransactionAborted(err error) bool { return Is(err, TransactionAborted) }
func IsUniqueViolation(err error) bool    { return Is(err, UniqueViolation) }
