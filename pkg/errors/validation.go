package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// maxNameLength bounds node names so labels stay renderable.
const maxNameLength = 256

// ValidateNodeName validates a node display name.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters (names end up inside SVG text and terminal cells)
//   - Maximum length of 256 characters
func ValidateNodeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidNode, "node name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidNode, "node name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNode, "node name contains invalid control characters")
		}
	}

	return nil
}

// categoryRegex matches category names that are safe inside a CSS class.
var categoryRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateCategory validates a node category. An empty category is valid
// and means "default".
func ValidateCategory(category string) error {
	if category == "" {
		return nil
	}
	if len(category) > 64 {
		return New(ErrCodeInvalidNode, "node type too long (max 64 characters)")
	}
	if !categoryRegex.MatchString(category) {
		return New(ErrCodeInvalidNode, "invalid node type: %q (letters, digits, '-' and '_' only)", category)
	}
	return nil
}

// ValidateFinite rejects NaN and infinite values for the named field.
func ValidateFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidInput, "%s must be a finite number, got %v", field, v)
	}
	return nil
}

// ValidatePath validates an input or output file path given on the command
// line or in a config file.
//
// Absolute paths are allowed. The path must not be empty, must not contain
// control characters and must not use backslashes.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
