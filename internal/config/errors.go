package config

import (
	"fmt"
	"strings"
)

// ConfigurationError is a single problem with the loaded configuration.
type ConfigurationError struct {
	// FilePath is the file the value came from, empty for defaults and
	// environment overrides.
	FilePath string
	Field    string
	Value    any
	Message  string
	Err      error
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration")
	if ce.FilePath != "" {
		fmt.Fprintf(&b, " %s", ce.FilePath)
	}
	if ce.Field != "" {
		fmt.Fprintf(&b, ": field '%s'", ce.Field)
	}
	fmt.Fprintf(&b, ": %s", ce.Message)
	return b.String()
}

// Unwrap returns the underlying parse or I/O error, if any.
func (ce *ConfigurationError) Unwrap() error {
	return ce.Err
}

// ConfigurationErrors holds every problem found in one load.
type ConfigurationErrors []*ConfigurationError

// Error implements the error interface for multiple configuration errors
func (ce ConfigurationErrors) Error() string {
	if len(ce) == 0 {
		return "no configuration errors"
	}
	if len(ce) == 1 {
		return ce[0].Error()
	}

	messages := make([]string, 0, len(ce))
	for _, err := range ce {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("%d configuration errors: %s", len(ce), strings.Join(messages, "; "))
}

// Unwrap lets errors.Is and errors.As see each error.
func (ce ConfigurationErrors) Unwrap() []error {
	out := make([]error, len(ce))
	for i, err := range ce {
		out[i] = err
	}
	return out
}

// HasErrors returns true if there are any configuration errors
func (ce ConfigurationErrors) HasErrors() bool {
	return len(ce) > 0
}

// Add records a problem with field.
func (ce *ConfigurationErrors) Add(field string, value any, messageFmt string, args ...any) {
	*ce = append(*ce, &ConfigurationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(messageFmt, args...),
	})
}

// Err returns nil when empty, the single error when there is one, and the
// collection otherwise.
func (ce ConfigurationErrors) Err() error {
	switch len(ce) {
	case 0:
		return nil
	case 1:
		return ce[0]
	default:
		return ce
	}
}
