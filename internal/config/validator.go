package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "supervisor.poll_interval_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Upper bounds for numeric settings.
const (
	MaxPriority       = 31
	MaxTimeSliceMs    = 1000
	MaxPollIntervalMs = 10 * 60 * 1000
	MaxBufferSize     = 1 << 16
)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidFormats returns the list of valid report formats
func ValidFormats() []string {
	return []string{"text", "json", "yaml"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateHarness()...)
	errors = append(errors, c.validateKernel()...)
	errors = append(errors, c.validateSupervisor()...)
	errors = append(errors, c.validateDisplay()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateRun()...)
	errors = append(errors, c.validateTUI()...)

	return errors
}

func (c *Config) validateHarness() []ValidationError {
	var errors []ValidationError

	if c.Harness.Priority < 1 || c.Harness.Priority > MaxPriority {
		errors = append(errors, ValidationError{
			Field:   "harness.priority",
			Value:   c.Harness.Priority,
			Message: fmt.Sprintf("must be between 1 and %d (0 is the idle priority)", MaxPriority),
		})
	}

	return errors
}

func (c *Config) validateKernel() []ValidationError {
	var errors []ValidationError

	if c.Kernel.TimeSliceMs < 1 || c.Kernel.TimeSliceMs > MaxTimeSliceMs {
		errors = append(errors, ValidationError{
			Field:   "kernel.time_slice_ms",
			Value:   c.Kernel.TimeSliceMs,
			Message: fmt.Sprintf("must be between 1 and %d", MaxTimeSliceMs),
		})
	}

	return errors
}

func (c *Config) validateSupervisor() []ValidationError {
	var errors []ValidationError

	if c.Supervisor.PollIntervalMs < 10 || c.Supervisor.PollIntervalMs > MaxPollIntervalMs {
		errors = append(errors, ValidationError{
			Field:   "supervisor.poll_interval_ms",
			Value:   c.Supervisor.PollIntervalMs,
			Message: fmt.Sprintf("must be between 10 and %d", MaxPollIntervalMs),
		})
	}

	return errors
}

func (c *Config) validateDisplay() []ValidationError {
	var errors []ValidationError

	if c.Display.BufferSize < 1 || c.Display.BufferSize > MaxBufferSize {
		errors = append(errors, ValidationError{
			Field:   "display.buffer_size",
			Value:   c.Display.BufferSize,
			Message: fmt.Sprintf("must be between 1 and %d", MaxBufferSize),
		})
	}

	if c.Display.History < 1 {
		errors = append(errors, ValidationError{
			Field:   "display.history",
			Value:   c.Display.History,
			Message: "must be at least 1",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateRun() []ValidationError {
	var errors []ValidationError

	if c.Run.DurationSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "run.duration_seconds",
			Value:   c.Run.DurationSeconds,
			Message: "must be non-negative (0 means no limit)",
		})
	}

	if !slices.Contains(ValidFormats(), strings.ToLower(c.Run.Format)) {
		errors = append(errors, ValidationError{
			Field:   "run.format",
			Value:   c.Run.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidFormats(), ", ")),
		})
	}

	if c.Run.Filter != "" {
		if _, err := glob.Compile(c.Run.Filter); err != nil {
			errors = append(errors, ValidationError{
				Field:   "run.filter",
				Value:   c.Run.Filter,
				Message: fmt.Sprintf("invalid glob: %v", err),
			})
		}
	}

	return errors
}

func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	if c.TUI.RefreshMs < 16 {
		errors = append(errors, ValidationError{
			Field:   "tui.refresh_ms",
			Value:   c.TUI.RefreshMs,
			Message: "must be at least 16",
		})
	}

	if c.TUI.MessageLines < 0 {
		errors = append(errors, ValidationError{
			Field:   "tui.message_lines",
			Value:   c.TUI.MessageLines,
			Message: "must be non-negative",
		})
	}

	return errors
}
