package mapping

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes statement failures.
type ErrorCode string

const (
	// ErrCodeExpressionType indicates an expression produced the wrong kind
	// of result for its context (e.g. a regex where a value is needed).
	ErrCodeExpressionType ErrorCode = "EXPRESSION_TYPE"

	// ErrCodeNonBooleanCondition indicates an if condition or a merge deep
	// flag did not evaluate to a boolean.
	ErrCodeNonBooleanCondition ErrorCode = "NON_BOOLEAN_CONDITION"

	// ErrCodePathNotFound indicates a required event path is absent.
	ErrCodePathNotFound ErrorCode = "PATH_NOT_FOUND"

	// ErrCodeNonMapOperand indicates merge was given a non-map operand.
	ErrCodeNonMapOperand ErrorCode = "NON_MAP_OPERAND"
)

// Fixed statement error messages.
const (
	msgAssignNonValue      = "assignment must be from a value"
	msgNonBooleanCondition = "query returned non-boolean value"
	msgMergeDeepNonBoolean = "deep parameter passed to merge is a non-boolean value"
	msgMergeNonMap         = "parameters passed to merge are non-map values"
	msgLogNonValue         = "Can only log Value parameters"
)

// StatementError is a failure raised by a statement itself.
// Error returns only the message so that rendered text stays stable.
type StatementError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *StatementError) Error() string {
	return e.Message
}

func newStatementError(code ErrorCode, message string) *StatementError {
	return &StatementError{Code: code, Message: message}
}

// ApplyError reports the statement at Index failing with Err.
type ApplyError struct {
	Index int
	Err   error
}

// Error implements the error interface.
func (e *ApplyError) Error() string {
	return fmt.Sprintf("failed to apply mapping %d: %v", e.Index, e.Err)
}

// Unwrap returns the statement's own error.
func (e *ApplyError) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is, or wraps, a StatementError with code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var se *StatementError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// FailedIndex returns the index of the failing statement if err is, or
// wraps, an ApplyError.
func FailedIndex(err error) (int, bool) {
	var ae *ApplyError
	if errors.As(err, &ae) {
		return ae.Index, true
	}
	return 0, false
}
