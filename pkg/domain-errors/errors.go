// Package domainerrors provides coded errors for domain and validation failures.
//
// Infrastructure facts (not found in store, expired, …) use pkg/platform/sentinel;
// this package is for errors that carry a client-facing code and description.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies the class of a domain error. Codes double as the wire-level
// error identifiers, so keep them stable.
type Code string

const (
	CodeValidation   Code = "validation_error"
	CodeInvalidInput Code = "invalid_input"
	CodeBadRequest   Code = "bad_request"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal_error"

	// Grounds-specific failure classes. These are client errors: the request
	// cannot be serviced with the data at hand, the system itself is healthy.
	CodeMissingOwner      Code = "missing_owner_reference"
	CodeBrokenProvenance  Code = "broken_provenance"
	CodeUnknownCategory   Code = "unknown_category"
	CodeUnresolvableTable Code = "unresolvable_threshold_table"
)

// Error is a coded domain error. Description is safe to show to API clients
// except for CodeInternal, where transports must omit it.
type Error struct {
	Code        Code
	Description string
	cause       error
}

func (e *Error) Error() string {
	if e.Description == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with a client-facing description.
func New(code Code, description string) *Error {
	return &Error{Code: code, Description: description}
}

// Wrap builds a coded error that keeps the underlying cause for errors.Is/As.
func Wrap(code Code, description string, cause error) *Error {
	return &Error{Code: code, Description: description, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
