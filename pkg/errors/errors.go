// Package errors provides structured error handling for hotpool with error
// categorization, key-value context and stack capture.
//
// # Overview
//
// Every error raised by the pools, the memory monitor and the configuration
// layer is an *Error carrying an ErrorType. Callers branch on the type rather
// than on message text:
//
//	obj, err := stack.Get()
//	if errors.IsResourceExhausted(err) {
//	    // apply backpressure: drop or defer the event
//	}
//
// The ErrResourceExhausted sentinel also works with the standard library:
//
//	if stderrors.Is(err, errors.ErrResourceExhausted) { ... }
//
// # Thread Safety
//
// Error instances are not thread-safe for modification. Call WithDetail
// before sharing an error across goroutines.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error.
type ErrorType string

const (
	// ErrorTypeInternal represents internal errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents invalid arguments or configuration values
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfig represents configuration loading errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeState represents an operation invoked in the wrong lifecycle state
	ErrorTypeState ErrorType = "state"
	// ErrorTypeProbe represents a failed memory reading
	ErrorTypeProbe ErrorType = "probe"
	// ErrorTypeResourceExhausted represents a refusal to allocate under memory pressure
	ErrorTypeResourceExhausted ErrorType = "resource_exhausted"
	// ErrorTypeFile represents file operation errors
	ErrorTypeFile ErrorType = "file"
)

// ErrResourceExhausted matches, via errors.Is, any error of type
// ErrorTypeResourceExhausted.
var ErrResourceExhausted = &Error{
	Type:    ErrorTypeResourceExhausted,
	Message: "memory headroom below threshold",
}

// Error represents a structured error with context.
//
// Fields:
//   - Type: Categorizes the error for handling strategies
//   - Message: Human-readable error description
//   - Cause: The underlying error, if any
//   - Details: Key-value pairs providing additional context
//   - Stack: Call stack at the point of error creation
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string // Fully qualified function name
	File     string // Source file path
	Line     int    // Line number in source file
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same type. This lets the
// package-level sentinels match freshly created errors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a key-value detail to the error. Calls can be chained.
//
// Example:
//
//	err := errors.New(errors.ErrorTypeValidation, "invalid capacity").
//	    WithDetail("field", "primary_capacity").
//	    WithDetail("value", -1)
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message, capturing the
// call stack at the point of creation.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf is New with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context, preserving the
// original error as the cause. If the error is already a structured Error,
// its stack trace is preserved. Returns nil if err is nil.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsRetryable returns true if the error describes a transient condition.
// Probe failures and resource exhaustion clear up on their own once memory
// is sampled again or freed.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	switch e.Type {
	case ErrorTypeProbe, ErrorTypeResourceExhausted:
		return true
	default:
		return false
	}
}

// IsType checks if the error is of the given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// IsResourceExhausted reports whether err signals that a pool refused to
// allocate because memory headroom is below its threshold.
func IsResourceExhausted(err error) bool {
	return IsType(err, ErrorTypeResourceExhausted)
}

// captureStack captures the current call stack up to maxFrames deep,
// skipping the specified number of frames from the top.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
