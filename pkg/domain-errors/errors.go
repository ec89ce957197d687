// Package domainerrors provides coded errors for the verification core.
//
// Services return these so transport layers can map failures to responses
// without string matching. Stores return pkg/platform/sentinel errors and
// services translate them into coded errors at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure. Codes are stable API; messages are not.
type Code string

const (
	// Validation failures: caller-correctable, never auto-retried.
	CodeDuplicateActiveCase     Code = "duplicate_active_case"
	CodeMissingRequiredDocument Code = "missing_required_documents"
	CodeKYCNotVerified          Code = "kyc_not_verified"
	CodeInvalidTransition       Code = "invalid_transition"
	CodeReportAlreadySubmitted  Code = "report_already_submitted"
	CodeCaseClosed              Code = "case_closed"
	CodeBadRequest              Code = "bad_request"
	CodeInvalidInput            Code = "invalid_input"

	// Authorization failures: surfaced verbatim, never downgraded.
	CodeUnauthorized          Code = "unauthorized"
	CodeUnknownInspector      Code = "unknown_inspector"
	CodeNotAssignedInspector  Code = "not_assigned_inspector"

	// Concurrency: surfaced after bounded internal retry.
	CodeConflict Code = "conflict"

	// Infrastructure.
	CodeStorageUnavailable Code = "storage_unavailable"
	CodeNotFound           Code = "not_found"
	CodeInternal           Code = "internal"
)

// Error carries a code, a human message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error preserving the original cause for errors.Is/As.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf returns the outermost code carried by err, or CodeInternal if none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
