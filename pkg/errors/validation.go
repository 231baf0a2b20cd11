package errors

import (
	"math"
	"strings"
	"unicode"
)

// maxNodeIDLength bounds node and connector ids accepted from the CLI and API.
const maxNodeIDLength = 256

// ValidateNodeID validates a node or connector id for safety.
// It rejects ids that could be used for key injection in the Redis and Mongo
// backends or for path tricks in URLs.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters or null bytes
//   - No whitespace
//   - No slashes or backslashes
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidNodeID, "node id cannot be empty")
	}

	if len(id) > maxNodeIDLength {
		return New(ErrCodeInvalidNodeID, "node id too long (max %d characters)", maxNodeIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNodeID, "node id contains invalid control characters")
		}
		if unicode.IsSpace(r) {
			return New(ErrCodeInvalidNodeID, "node id cannot contain whitespace")
		}
	}

	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidNodeID, "node id cannot contain slashes: %q", id)
	}

	return nil
}

// ValidateMargin validates a layout margin.
// Margins must be finite and non-negative.
func ValidateMargin(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidConfig, "%s margin must be a finite number", name)
	}
	if v < 0 {
		return New(ErrCodeInvalidConfig, "%s margin cannot be negative: %g", name, v)
	}
	return nil
}

// ValidateGeometry validates the size of a node.
// Widths and heights must be finite and non-negative; positions only finite.
func ValidateGeometry(id string, x, y, width, height float64) error {
	for _, v := range []float64{x, y, width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidDocument, "node %s has non-finite geometry", id)
		}
	}
	if width < 0 || height < 0 {
		return New(ErrCodeInvalidDocument, "node %s has negative size %gx%g", id, width, height)
	}
	return nil
}
