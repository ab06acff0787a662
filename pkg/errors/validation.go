package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateBranchPath validates an expansion path received from a client.
// Paths are node names joined by "/" starting at the root, so the rules are
// about shape and safety rather than existence in a particular tree:
//   - No empty paths
//   - No control characters or null bytes
//   - No empty segments (leading, trailing or doubled "/")
//   - Maximum length of 2048 characters
func ValidateBranchPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 2048
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			return New(ErrCodeInvalidPath, "path contains an empty segment: %q", path)
		}
	}

	return nil
}

// datasetNameRegex matches dataset identifiers used in URLs and cache keys.
var datasetNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,63}$`)

// ValidateDatasetName validates a dataset name.
// Dataset names appear in URLs, so they are restricted to lowercase
// letters, digits, dots, dashes and underscores.
func ValidateDatasetName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidDataset, "dataset name cannot be empty")
	}
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidDataset, "dataset name cannot contain path traversal sequences (..)")
	}
	if !datasetNameRegex.MatchString(name) {
		return New(ErrCodeInvalidDataset, "invalid dataset name: %q", name)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
