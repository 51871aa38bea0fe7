package config

import (
	"fmt"
	"strings"
)

var validLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

var validFormats = map[string]bool{
	"text": true,
	"json": true,
}

var validLocking = map[string]bool{
	LockingNone:    true,
	LockingRWMutex: true,
}

// ValidationError represents a single config validation error.
type ValidationError struct {
	Path    string // Config path, e.g. "recorder.locking"
	Message string
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationResult contains all validation errors for a document.
type ValidationResult struct {
	Errors []ValidationError
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Error returns a combined error message.
func (r *ValidationResult) Error() string {
	if r.IsValid() {
		return ""
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "\n")
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(path, message string) {
	r.Errors = append(r.Errors, ValidationError{Path: path, Message: message})
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}

	if c.Log.Level != "" && !validLevels[strings.ToLower(c.Log.Level)] {
		result.AddError("log.level", fmt.Sprintf("unknown level %q, expected debug, info, warn or error", c.Log.Level))
	}
	if c.Log.Format != "" && !validFormats[strings.ToLower(c.Log.Format)] {
		result.AddError("log.format", fmt.Sprintf("unknown format %q, expected text or json", c.Log.Format))
	}

	if !validLocking[c.Recorder.Locking] {
		result.AddError("recorder.locking", fmt.Sprintf("unknown locking mode %q, expected %s or %s", c.Recorder.Locking, LockingNone, LockingRWMutex))
	}

	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		result.AddError("metrics.namespace", "required when metrics are enabled")
	}

	return result
}
