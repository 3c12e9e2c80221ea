// Package errors defines the coded errors that end a stackdepth run.
//
// Only fatal outcomes are errors. Skipped input lines, missing directories
// and degraded entry-point discovery are warnings (see package diag), and an
// unbounded worst case is an analysis result, not a failure.
//
// # Error Codes
//
//   - INVALID_*: unusable flags, project file or binary
//   - *_NOT_FOUND: a named file or scenario does not exist
//   - NO_*: nothing to analyze
//   - STACK_BUDGET_EXCEEDED: the result violates --max-stack
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNoStackUsage, "no stack usage records in %s", dirs)
//	if errors.Is(err, errors.ErrCodeNoStackUsage) {
//	    // Rebuild with -fstack-usage
//	}
//
//	err = errors.Wrap(errors.ErrCodeFileNotFound, origErr, "annotation file not found: %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidBinary Code = "INVALID_BINARY"

	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"
	ErrCodeScenarioNotFound Code = "SCENARIO_NOT_FOUND"

	ErrCodeNoStackUsage  Code = "NO_STACK_USAGE"
	ErrCodeNoEntryPoints Code = "NO_ENTRY_POINTS"

	ErrCodeStackBudgetExceeded Code = "STACK_BUDGET_EXCEEDED"
)

// coded is implemented by every error type of this package.
type coded interface {
	error
	ErrorCode() Code
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// ErrorCode returns e.Code.
func (e *Error) ErrorCode() Code { return e.Code }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a formatted message caused by cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost coded error in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the outermost coded error in err's chain, or
// "" when there is none.
func GetCode(err error) Code {
	var c coded
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}

// UserMessage returns the message of a coded error without its code prefix,
// or err.Error() for any other error.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// BudgetExceededError reports a worst case that violates a stack budget.
type BudgetExceededError struct {
	Limit     int    // budget in bytes
	Worst     int    // worst case in bytes, 0 when Unbounded
	Unbounded bool   // the worst case is unbounded recursion
	Scenario  string // scenario that produced the worst case
}

func (e *BudgetExceededError) Error() string {
	if e.Unbounded {
		return fmt.Sprintf("stack budget of %d bytes cannot be proven: unbounded recursion in scenario %q", e.Limit, e.Scenario)
	}
	return fmt.Sprintf("stack budget exceeded: %d bytes > %d bytes in scenario %q", e.Worst, e.Limit, e.Scenario)
}

// ErrorCode returns [ErrCodeStackBudgetExceeded].
func (e *BudgetExceededError) ErrorCode() Code { return ErrCodeStackBudgetExceeded }
