// Package errors provides centralized error definitions and error handling utilities
// for blockq. It defines sentinel errors for the queue runtime and the harness,
// typed errors that carry task and scenario context, and classification helpers.
//
// # Error Types
//
// Domain-specific errors:
//   - TaskError: a non-fatal fault observed by a producer or consumer task
//     (send failure, sequence mismatch)
//   - StartupError: a fatal failure while building queues or creating tasks
//
// Both implement [HarnessError], which adds severity and fatality to the
// standard error interface.
//
// # Usage
//
//	err := errors.NewTaskError("QConsB1", errors.ErrSequenceMismatch).
//	    WithScenario(1).
//	    WithValues(304, 305)
//
//	if errors.Is(err, errors.ErrSequenceMismatch) { ... }
//
//	var startErr *errors.StartupError
//	if errors.As(err, &startErr) { ... }
//
//	if errors.IsFatal(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is   = errors.Is
	As   = errors.As
	New  = errors.New
	Join = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors the process cannot continue past.
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

// Queue runtime sentinel errors
var (
	// ErrQueueFull indicates a send timed out because the queue stayed full.
	ErrQueueFull = New("queue full")
	// ErrQueueEmpty indicates a receive timed out because the queue stayed empty.
	ErrQueueEmpty = New("queue empty")
	// ErrQueueCreate indicates a queue of the requested capacity cannot be allocated.
	ErrQueueCreate = New("queue create failed")
	// ErrTaskCreate indicates the scheduler refused to create a task.
	ErrTaskCreate = New("task create failed")
	// ErrNotTask indicates a blocking kernel call was made outside a kernel task.
	ErrNotTask = New("caller is not a kernel task")
	// ErrKernelClosed indicates the kernel has been shut down.
	ErrKernelClosed = New("kernel closed")
)

// Harness sentinel errors
var (
	// ErrSendFailed indicates a producer could not post within its block time.
	ErrSendFailed = New("could not post on blocking queue")
	// ErrSequenceMismatch indicates a consumer received an unexpected value.
	ErrSequenceMismatch = New("incorrect value received on blocking queue")
	// ErrAlreadyStarted indicates StartAll was called while tasks are running.
	ErrAlreadyStarted = New("harness already started")
	// ErrInvalidPriority indicates the elevated priority is not above idle.
	ErrInvalidPriority = New("invalid priority")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// HarnessError is the base interface for all blockq errors.
type HarnessError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsFatal returns true if the harness cannot proceed after this error.
	IsFatal() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message  string
	cause    error
	severity Severity
	fatal    bool
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

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsFatal returns whether the error stops the harness.
func (e *baseError) IsFatal() bool {
	return e.fatal
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// TaskError is a fault observed inside a running producer or consumer task.
// Task errors are handled locally by the task and reported outward only
// through the error callback; they never stop the task.
//
// Example:
//
//	err := errors.NewTaskError("QProdB2", errors.ErrSendFailed).WithScenario(1)
//	fmt.Println(err) // "task error [task=QProdB2, scenario=1]: could not post on blocking queue"
type TaskError struct {
	baseError
	Task     string
	Scenario int
	Expected uint16
	Received uint16
	// HasValues is set when Expected and Received are meaningful.
	HasValues bool
}

// NewTaskError creates a new TaskError wrapping one of the harness sentinels.
func NewTaskError(task string, cause error) *TaskError {
	return &TaskError{
		baseError: baseError{
			message:  "task fault",
			cause:    cause,
			severity: SeverityWarning,
		},
		Task: task,
	}
}

// WithScenario adds the 1-based scenario number to the error context.
func (e *TaskError) WithScenario(n int) *TaskError {
	e.Scenario = n
	return e
}

// WithValues records the expected and received sequence values.
func (e *TaskError) WithValues(expected, received uint16) *TaskError {
	e.Expected = expected
	e.Received = received
	e.HasValues = true
	return e
}

// Error returns the formatted error message.
func (e *TaskError) Error() string {
	var parts []string
	if e.Task != "" {
		parts = append(parts, "task="+e.Task)
	}
	if e.Scenario > 0 {
		parts = append(parts, fmt.Sprintf("scenario=%d", e.Scenario))
	}
	if e.HasValues {
		parts = append(parts, fmt.Sprintf("expected=%d", e.Expected), fmt.Sprintf("received=%d", e.Received))
	}

	prefix := "task error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("task error [%s]", strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.cause)
	}
	return prefix
}

// Is reports whether target is a *TaskError.
func (e *TaskError) Is(target error) bool {
	_, ok := target.(*TaskError)
	return ok
}

// StartupError is a fatal failure while building the scenarios.
//
// Example:
//
//	err := errors.NewStartupError("create queue", errors.ErrQueueCreate).WithScenario(3)
type StartupError struct {
	baseError
	Operation string
	Scenario  int
	Task      string
}

// NewStartupError creates a new StartupError.
func NewStartupError(operation string, cause error) *StartupError {
	return &StartupError{
		baseError: baseError{
			message:  operation,
			cause:    cause,
			severity: SeverityCritical,
			fatal:    true,
		},
		Operation: operation,
	}
}

// WithScenario adds the 1-based scenario number to the error context.
func (e *StartupError) WithScenario(n int) *StartupError {
	e.Scenario = n
	return e
}

// WithTask adds the task name to the error context.
func (e *StartupError) WithTask(name string) *StartupError {
	e.Task = name
	return e
}

// Error returns the formatted error message.
func (e *StartupError) Error() string {
	var parts []string
	if e.Scenario > 0 {
		parts = append(parts, fmt.Sprintf("scenario=%d", e.Scenario))
	}
	if e.Task != "" {
		parts = append(parts, "task="+e.Task)
	}

	prefix := "startup error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("startup error [%s]", strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is reports whether target is a *StartupError.
func (e *StartupError) Is(target error) bool {
	_, ok := target.(*StartupError)
	return ok
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsFatal returns true if err means the harness cannot proceed.
// Errors that don't implement HarnessError are treated as non-fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var he HarnessError
	if As(err, &he) {
		return he.IsFatal()
	}
	return false
}

// IsTimeout returns true if err is a queue timeout in either direction.
func IsTimeout(err error) bool {
	return Is(err, ErrQueueFull) || Is(err, ErrQueueEmpty)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement HarnessError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var he HarnessError
	if As(err, &he) {
		return he.Severity()
	}
	return SeverityError
}

// Wrap wraps an error with additional context message.
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
