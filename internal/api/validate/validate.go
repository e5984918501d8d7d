package validate

import (
	"fmt"
	"path/filepath"
)

// Key validates a dataset registry key. Keys are the absolute path of the
// source that was (or is being) loaded; relative paths would make the same
// source register under as many keys as there are working directories.
func Key(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	if !filepath.IsAbs(v) {
		return fmt.Errorf("%s must be an absolute path, got %q", field, v)
	}
	return nil
}

// Path validates a filesystem path request field.
func Path(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// Limit validates a message count bound.
func Limit(v int) error {
	if v < 0 {
		return fmt.Errorf("limit must not be negative, got %d", v)
	}
	return nil
}

// Offset validates a message slice offset.
func Offset(v int) error {
	if v < 0 {
		return fmt.Errorf("offset must not be negative, got %d", v)
	}
	return nil
}
