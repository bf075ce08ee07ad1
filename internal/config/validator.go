package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "capture.tab_width")
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
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

const (
	maxWidth      = 65535
	maxTabWidth   = 64
	maxLogSizeMB  = 10240 // 10GB
	maxPathLength = 4096
)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateCapture()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateCapture() []ValidationError {
	var errors []ValidationError

	if c.Capture.Width < 0 || c.Capture.Width > maxWidth {
		errors = append(errors, ValidationError{
			Field:   "capture.width",
			Value:   c.Capture.Width,
			Message: fmt.Sprintf("must be between 0 and %d", maxWidth),
		})
	}

	if c.Capture.TabWidth < 0 || c.Capture.TabWidth > maxTabWidth {
		errors = append(errors, ValidationError{
			Field:   "capture.tab_width",
			Value:   c.Capture.TabWidth,
			Message: fmt.Sprintf("must be between 0 and %d", maxTabWidth),
		})
	}

	return errors
}

func (c *Config) validateOutput() []ValidationError {
	var errors []ValidationError

	if c.Output.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "output.max_size_mb",
			Value:   c.Output.MaxSizeMB,
			Message: "must be non-negative",
		})
	}
	if c.Output.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "output.max_size_mb",
			Value:   c.Output.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	errors = append(errors, validatePath("output.dir", c.Output.Dir)...)
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

	errors = append(errors, validatePath("logging.file", c.Logging.File)...)
	return errors
}

// validatePath rejects paths no filesystem will accept. Empty means default.
func validatePath(field, path string) []ValidationError {
	if path == "" {
		return nil
	}

	var errors []ValidationError
	if strings.ContainsRune(path, '\x00') {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   path,
			Message: "path contains invalid null character",
		})
	}
	if len(path) > maxPathLength {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   path,
			Message: fmt.Sprintf("path exceeds maximum length of %d characters", maxPathLength),
		})
	}
	return errors
}
