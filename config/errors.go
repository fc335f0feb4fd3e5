package config

import "fmt"

// ConfigValidationError means the merged configuration does not fit the schema: a required
// field is missing, a field is not recognized, a value has the wrong shape, or the schema
// itself could not be composed. It is fatal for the whole suite.
type ConfigValidationError struct {
	Prefix string
	Path   string
	Reason string
}

func (e *ConfigValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid configuration for %q: %s", e.Prefix, e.Reason)
	}
	return fmt.Sprintf("invalid configuration for %q at %s: %s", e.Prefix, e.Path, e.Reason)
}

// UnimplementedExtensionError means a suite did not supply one of the values it must provide,
// such as its configuration prefix or its configuration search paths.
type UnimplementedExtensionError struct {
	Point string
}

func (e *UnimplementedExtensionError) Error() string {
	return fmt.Sprintf("test suite must implement %s", e.Point)
}

// fieldError is a schema violation found below a prefix; Validate turns it into a
// ConfigValidationError once the prefix is known.
type fieldError struct {
	path   string
	reason string
}

func (e *fieldError) Error() string {
	return e.path + ": " + e.reason
}

func fieldErrorf(path, format string, args ...interface{}) *fieldError {
	return &fieldError{path: path, reason: fmt.Sprintf(format, args...)}
}
