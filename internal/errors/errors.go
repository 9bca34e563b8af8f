// Copyright Ricardo Oliveira 2025.
// SPDX-License-Identifier: MPL-2.0

// Package errors provides the typed failures returned by the vagrant binding
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinels usable with errors.Is
var (
	ErrExecutableNotFound = errors.New("vagrant executable not found")
	ErrInvocationFailed   = errors.New("process invocation failed")
	ErrTimeout            = errors.New("operation timed out")
	ErrCancelled          = errors.New("operation was cancelled")
	ErrParse              = errors.New("malformed vagrant output")
	ErrCommandFailed      = errors.New("vagrant command failed")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidState       = errors.New("invalid state for operation")
)

// ErrorCode represents specific error codes for better error handling
type ErrorCode string

// Error codes, one per failure class
const (
	CodeExecutableNotFound ErrorCode = "executable_not_found"
	CodeInvocationFailed   ErrorCode = "invocation_failed"
	CodeTimeout            ErrorCode = "timeout"
	CodeCancelled          ErrorCode = "cancelled"
	CodeParseError         ErrorCode = "parse_error"
	CodeCommandFailed      ErrorCode = "command_failed"
	CodeInvalidInput       ErrorCode = "invalid_input"
	CodeInvalidState       ErrorCode = "invalid_state"
)

// Context keys set by the constructors below
const (
	keyCommand  = "command"
	keyExitCode = "exitCode"
	keyStderr   = "stderr"
	keyLine     = "line"
	keyText     = "text"
	keyTimeout  = "timeout"
)

// AppError represents an application-specific error with context
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements the unwrap interface to support errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithContext adds context information to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new AppError with the given code and message
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error in an AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ExecutableNotFound reports that the external tool could not be resolved.
// Nothing was spawned.
func ExecutableNotFound(name string, searched []string) *AppError {
	return &AppError{
		Code:    CodeExecutableNotFound,
		Message: fmt.Sprintf("cannot find executable %q; check that it is installed and on PATH", name),
		Err:     ErrExecutableNotFound,
		Context: map[string]interface{}{
			"name":     name,
			"searched": searched,
		},
	}
}

// InvocationFailed wraps an OS-level spawn failure (missing cwd, permissions, ...)
func InvocationFailed(command string, err error) *AppError {
	return &AppError{
		Code:    CodeInvocationFailed,
		Message: fmt.Sprintf("failed to run %s", command),
		Err:     errors.Join(ErrInvocationFailed, err),
		Context: map[string]interface{}{
			keyCommand: command,
		},
	}
}

// Timeout reports an invocation killed after exceeding its deadline
func Timeout(command string, after time.Duration) *AppError {
	return &AppError{
		Code:    CodeTimeout,
		Message: fmt.Sprintf("%s did not finish within %s and was killed", command, after),
		Err:     ErrTimeout,
		Context: map[string]interface{}{
			keyCommand: command,
			keyTimeout: after,
		},
	}
}

// Cancelled reports an invocation stopped because its context was cancelled
func Cancelled(command string, err error) *AppError {
	return &AppError{
		Code:    CodeCancelled,
		Message: fmt.Sprintf("%s was cancelled", command),
		Err:     errors.Join(ErrCancelled, err),
		Context: map[string]interface{}{
			keyCommand: command,
		},
	}
}

// ParseFailed reports a line that does not follow the expected output shape
func ParseFailed(line int, text, reason string) *AppError {
	return &AppError{
		Code:    CodeParseError,
		Message: fmt.Sprintf("line %d: %s", line, reason),
		Err:     ErrParse,
		Context: map[string]interface{}{
			keyLine: line,
			keyText: text,
		},
	}
}

// CommandFailed reports a non-zero exit where the operation treats it as failure.
// The captured stderr is kept for diagnostics.
func CommandFailed(args []string, exitCode int, stderr string) *AppError {
	command := strings.Join(args, " ")
	msg := fmt.Sprintf("vagrant %s exited with code %d", command, exitCode)
	if s := strings.TrimSpace(stderr); s != "" {
		msg = fmt.Sprintf("%s: %s", msg, firstLine(s))
	}
	return &AppError{
		Code:    CodeCommandFailed,
		Message: msg,
		Err:     ErrCommandFailed,
		Context: map[string]interface{}{
			keyCommand:  command,
			keyExitCode: exitCode,
			keyStderr:   stderr,
		},
	}
}

// InvalidInput creates a new invalid input error
func InvalidInput(details string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: fmt.Sprintf("Invalid input: %s", details),
		Err:     ErrInvalidInput,
	}
}

// InvalidState reports an operation that cannot proceed in the machine's current state
func InvalidState(details string) *AppError {
	return &AppError{
		Code:    CodeInvalidState,
		Message: details,
		Err:     ErrInvalidState,
	}
}

// Is checks if the error is of the specified code
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsExecutableNotFound checks if the error reports a missing executable
func IsExecutableNotFound(err error) bool {
	return Is(err, CodeExecutableNotFound) || errors.Is(err, ErrExecutableNotFound)
}

// IsTimeout checks if the error reports an expired deadline
func IsTimeout(err error) bool {
	return Is(err, CodeTimeout) || errors.Is(err, ErrTimeout)
}

// IsParseError checks if the error reports malformed output
func IsParseError(err error) bool {
	return Is(err, CodeParseError) || errors.Is(err, ErrParse)
}

// IsCommandFailed checks if the error reports a failing vagrant command
func IsCommandFailed(err error) bool {
	return Is(err, CodeCommandFailed) || errors.Is(err, ErrCommandFailed)
}

// StderrOf returns the stderr captured with a CommandFailed error, if any
func StderrOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if s, ok := appErr.Context[keyStderr].(string); ok {
			return s
		}
	}
	return ""
}

// ExitCodeOf returns the exit code carried by a CommandFailed error, or -1
func ExitCodeOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if code, ok := appErr.Context[keyExitCode].(int); ok {
			return code
		}
	}
	return -1
}

// LineOf returns the input line number carried by a ParseError, or 0
func LineOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if line, ok := appErr.Context[keyLine].(int); ok {
			return line
		}
	}
	return 0
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
