// Package errors provides centralized error definitions and error handling
// utilities for ttylog. It defines sentinel errors, typed errors carrying
// capture context, and classification helpers used to decide whether a
// failure ends the capture session or is reported and skipped.
//
// # Error Types
//
// Domain errors:
//   - SinkError: the record log file could not be opened or written
//   - InputError: the raw input source could not be read or followed
//
// Semantic errors:
//   - NotFoundError: a log file or directory does not exist
//
// # Usage
//
//	err := errors.NewSinkError("open log file", cause).WithPath(path)
//	if errors.IsFatal(err) { return err }
//
// # Propagation Policy
//
// Only a failure to establish the sink is fatal. Per-line write failures and
// decode anomalies are reported and skipped; a read failure ends the loop.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that lose data but let capture continue.
	SeverityWarning
	// SeverityError is for errors that end the capture loop.
	SeverityError
	// SeverityCritical is for errors that prevent capture from starting.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Sink-related sentinel errors
var (
	// ErrSinkUnavailable indicates the record log file could not be created.
	ErrSinkUnavailable = New("log sink unavailable")
	// ErrSinkWrite indicates a record could not be written.
	ErrSinkWrite = New("log sink write failed")
	// ErrSinkClosed indicates a write to a sink that was already closed.
	ErrSinkClosed = New("log sink closed")
)

// Input-related sentinel errors
var (
	// ErrInputRead indicates the raw input source returned a read error.
	ErrInputRead = New("input read failed")
	// ErrSourceClosed indicates the input source was closed while following it.
	ErrSourceClosed = New("input source closed")
)

// TtylogError is the base interface for all ttylog errors.
type TtylogError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the operation may succeed when attempted
	// again (for example, writing the next record).
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to the operator as-is.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// SinkError represents a failure of the record log file.
//
// Example:
//
//	err := errors.NewSinkError("write record", ioErr).WithPath("/home/u/log/...")
//	fmt.Println(err) // "sink error [path=/home/u/log/...]: write record: ..."
type SinkError struct {
	baseError
	Path string
}

// NewSinkError creates a new SinkError. Errors created with a cause of
// ErrSinkUnavailable are critical, a cause of ErrSinkClosed is an error that
// cannot be retried, and all others are retryable warnings.
func NewSinkError(message string, cause error) *SinkError {
	e := &SinkError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  true,
			userFacing: true,
		},
	}
	switch {
	case errors.Is(cause, ErrSinkUnavailable):
		e.severity = SeverityCritical
		e.retryable = false
	case errors.Is(cause, ErrSinkClosed):
		e.severity = SeverityError
		e.retryable = false
	}
	return e
}

// WithPath adds the log file path to the error context.
func (e *SinkError) WithPath(path string) *SinkError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *SinkError) Error() string {
	prefix := "sink error"
	if e.Path != "" {
		prefix = fmt.Sprintf("sink error [path=%s]", e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *SinkError) Is(target error) bool {
	if _, ok := target.(*SinkError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// InputError represents a failure reading the raw input source.
//
// Example:
//
//	err := errors.NewInputError("read line", ioErr).WithSource("stdin").WithLine(42)
type InputError struct {
	baseError
	Source string
	Line   int
}

// NewInputError creates a new InputError.
func NewInputError(message string, cause error) *InputError {
	return &InputError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithSource names the input source (stdin, a file path, a command).
func (e *InputError) WithSource(source string) *InputError {
	e.Source = source
	return e
}

// WithLine records the number of the line being read when the error occurred.
func (e *InputError) WithLine(n int) *InputError {
	e.Line = n
	return e
}

// Error returns the formatted error message.
func (e *InputError) Error() string {
	var parts []string
	if e.Source != "" {
		parts = append(parts, fmt.Sprintf("source=%s", e.Source))
	}
	if e.Line > 0 {
		parts = append(parts, fmt.Sprintf("line=%d", e.Line))
	}

	prefix := "input error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("input error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *InputError) Is(target error) bool {
	if _, ok := target.(*InputError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("log file", "/home/u/log")
//	fmt.Println(err) // "log file '/home/u/log' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

// IsRetryable returns true if the failed operation may succeed next time.
// A failed record write is retryable: the next line gets a fresh attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te TtylogError
	if As(err, &te) {
		return te.IsRetryable()
	}
	return Is(err, ErrSinkWrite)
}

// IsUserFacing returns true if the error message is safe to display to the
// operator without further context.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var te TtylogError
	if As(err, &te) {
		return te.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement TtylogError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var te TtylogError
	if As(err, &te) {
		return te.Severity()
	}
	return SeverityError
}

// IsFatal reports whether err must stop the process rather than be reported
// and skipped. Only a sink that cannot be established is fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return Is(err, ErrSinkUnavailable) || GetSeverity(err) == SeverityCritical
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike fmt.Errorf with %w, this preserves the TtylogError interface.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
