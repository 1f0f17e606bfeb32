// Package pathguard resolves operation paths against a project root and
// rejects any resolution that escapes it.
package pathguard

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// EscapeError indicates that a relative path resolved outside the project root.
type EscapeError struct {
	// Root is the project root the path was resolved against.
	Root string
	// Path is the offending relative path as supplied by the caller.
	Path string
}

func (e *EscapeError) Error() string {
	if e == nil {
		return "path escapes project root"
	}
	return fmt.Sprintf("path %q escapes project root %q", e.Path, e.Root)
}

// IsEscapeError reports whether err indicates a path escaping the project root.
func IsEscapeError(err error) bool {
	var target *EscapeError
	return errors.As(err, &target)
}

// Resolve joins rel onto root and returns the cleaned absolute path.
// It fails with an *EscapeError when rel is absolute or when the resolved
// path is neither root itself nor a descendant of it. Resolve must run
// before any read or write for every operation, including creates.
func Resolve(root, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", &EscapeError{Root: root, Path: rel}
	}

	cleanRoot := filepath.Clean(root)
	resolved := filepath.Clean(filepath.Join(cleanRoot, rel))

	if resolved != cleanRoot && !strings.HasPrefix(resolved, cleanRoot+string(filepath.Separator)) {
		return "", &EscapeError{Root: root, Path: rel}
	}
	return resolved, nil
}
