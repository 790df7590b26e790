package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a failure category independent of its message
type ErrorCode string

const (
	// General errors
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrInterrupted   ErrorCode = "INTERRUPTED"

	// Configuration errors
	ErrConfigLoad     ErrorCode = "CONFIG_LOAD"
	ErrConfigParse    ErrorCode = "CONFIG_PARSE"
	ErrConfigNotReady ErrorCode = "CONFIG_NOT_READY"

	// Pipeline errors
	ErrModuleFailed   ErrorCode = "MODULE_FAILED"
	ErrBootstrapFatal ErrorCode = "BOOTSTRAP_FATAL"
	ErrSelection      ErrorCode = "SELECTION"

	// Command and clone errors
	ErrCommandFailed  ErrorCode = "COMMAND_FAILED"
	ErrCommandTimeout ErrorCode = "COMMAND_TIMEOUT"
	ErrCloneFailed    ErrorCode = "CLONE_FAILED"
)

// Error carries a stable code for callers and tests to branch on, plus
// free-form details that end up in logs and the run report.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

func (e *Error) Error() string {
	msg := "[" + string(e.Code) + "] " + e.Message
	if e.Wrapped == nil {
		return msg
	}
	return msg + ": " + e.Wrapped.Error()
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithDetail attaches a key/value pair and returns e for chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

func build(code ErrorCode, message string, wrapped error) *Error {
	return &Error{Code: code, Message: message, Details: map[string]interface{}{}, Wrapped: wrapped}
}

func New(code ErrorCode, message string) *Error {
	return build(code, message, nil)
}

func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return build(code, fmt.Sprintf(format, args...), nil)
}

// Wrap attaches a code to err. A nil err yields nil so call sites can wrap
// unconditionally.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return build(code, message, err)
}

func Wrapf(err error, code ErrorCode, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return build(code, fmt.Sprintf(format, args...), err)
}

func asError(err error) (*Error, bool) {
	var coded *Error
	ok := errors.As(err, &coded)
	return coded, ok
}

// IsErrorCode reports whether the first *Error in err's chain has code.
func IsErrorCode(err error, code ErrorCode) bool {
	coded, ok := asError(err)
	return ok && coded.Code == code
}

// GetErrorCode returns ErrUnknown for errors that carry no code.
func GetErrorCode(err error) ErrorCode {
	if coded, ok := asError(err); ok {
		return coded.Code
	}
	return ErrUnknown
}

func GetErrorDetails(err error) map[string]interface{} {
	if coded, ok := asError(err); ok {
		return coded.Details
	}
	return nil
}
