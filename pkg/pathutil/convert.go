// Package pathutil provides utilities for converting between file URIs and
// filesystem paths.
//
// Architecture Pattern:
// The language server uses file URIs internally for consistency with the
// protocol, which addresses every document by URI. The compiler facility and
// the file watcher work with filesystem paths. This package provides the
// conversion layer between the two representations.
package pathutil

import (
	"net/url"
	"path/filepath"
	"strings"
)

// ToURI converts a filesystem path to a file:// URI.
//
// Examples:
//   - ToURI("/home/user/project/src/Main.java") → "file:///home/user/project/src/Main.java"
//   - ToURI("src/Main.java") → resolved against the working directory first
func ToURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	u := url.URL{Scheme: "file", Path: abs}
	return u.String()
}

// ToPath converts a file:// URI to a filesystem path.
// Falls back to the original string if it is not a parseable file URI, so
// callers holding a plain path keep working.
func ToPath(uri string) string {
	if !strings.HasPrefix(uri, "file:") {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return strings.TrimPrefix(uri, "file://")
	}
	return filepath.FromSlash(u.Path)
}

// IsJavaURI reports whether the URI names a .java source file.
func IsJavaURI(uri string) bool {
	return strings.HasSuffix(ToPath(uri), ".java")
}

// FileName returns the last path segment of a URI, for log messages.
func FileName(uri string) string {
	return filepath.Base(ToPath(uri))
}
