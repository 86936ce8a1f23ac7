package project

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration loading.
var (
	// ErrNoRoot indicates the project root directory does not exist.
	ErrNoRoot = errors.New("project root not found")
	// ErrMissingEntry indicates a client or server entry file could not be located.
	ErrMissingEntry = errors.New("entry file not found")
	// ErrInvalidConfig indicates the config file failed to parse or validate.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ConfigError records a configuration problem with file and field context.
type ConfigError struct {
	FilePath string // Config file or source file involved; may be empty
	Field    string // Offending field, if any
	Message  string
	Err      error // One of the sentinel errors above
}

// Error returns a human-readable string including file and field context.
func (e *ConfigError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.FilePath != "" && e.Field != "":
		return fmt.Sprintf("%s: %s: %s", e.FilePath, e.Field, msg)
	case e.FilePath != "":
		return fmt.Sprintf("%s: %s", e.FilePath, msg)
	case e.Field != "":
		return fmt.Sprintf("%s: %s", e.Field, msg)
	default:
		return msg
	}
}

// Unwrap returns the underlying sentinel for use with errors.Is.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
