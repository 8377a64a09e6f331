package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePackageName validates a package name for safety and correctness.
// It rejects names that could be used for path traversal once they end up
// in a cache entry filename.
//
//   - No empty names
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// pythonPackageNameRegex matches valid Python package names (PEP 508).
var pythonPackageNameRegex = regexp.MustCompile(`^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)

// ValidatePythonPackageName validates a Python package name per PEP 508.
func ValidatePythonPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}

	if !pythonPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid Python package name: %q", name)
	}

	return nil
}

// ValidateArchivePath validates the path of an entry inside an archive
// before it is joined onto an unpack directory.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - No absolute paths
//   - No path traversal sequences (..)
//   - No backslashes
func ValidateArchivePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "archive entry path cannot be empty")
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "archive entry %q contains invalid characters", path)
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "archive entry %q must be relative", path)
	}

	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "archive entry %q escapes the destination", path)
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "archive entry %q contains backslashes", path)
	}

	return nil
}

// ValidateURL validates a link URL. Remote links must use http or https;
// local links use the file scheme or a plain path.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidLink, "URL cannot be empty")
	}

	if i := strings.Index(rawURL, "://"); i >= 0 {
		switch rawURL[:i] {
		case "http", "https", "file":
			return nil
		default:
			return New(ErrCodeInvalidLink, "unsupported URL scheme %q", rawURL[:i])
		}
	}

	return nil
}
