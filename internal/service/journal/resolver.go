package journal

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// PathValidationError reports a requested path that escapes the journal
// root. It names both sides so the caller can see what was attempted.
type PathValidationError struct {
	Attempted string
	Root      string
}

func (e *PathValidationError) Error() string {
	return fmt.Sprintf("path %s is outside journal root %s", e.Attempted, e.Root)
}

// Resolver normalizes requested paths against the sandboxed journal root.
// Resolution is pure; it never creates directories.
type Resolver struct {
	root   string
	prefix string
	ext    string
}

// NewResolver builds a resolver for the configured root, filename prefix
// and required extension (including the leading dot).
func NewResolver(root, prefix, ext string) *Resolver {
	return &Resolver{root: root, prefix: prefix, ext: ext}
}

// DefaultFilename is the dated name used when no path is requested.
func (r *Resolver) DefaultFilename() string {
	return fmt.Sprintf("%s_%s%s", r.prefix, time.Now().Format("2006-01-02"), r.ext)
}

// Resolve validates and normalizes a requested path. An empty request
// yields the default dated file under the root; bare filenames are taken
// relative to the root; a mismatched extension is replaced. The resolved
// absolute path must stay inside the root or a *PathValidationError is
// returned.
func (r *Resolver) Resolve(requested string) (string, error) {
	path := requested
	if path == "" {
		path = r.DefaultFilename()
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.root, path)
	}

	if ext := filepath.Ext(path); ext != r.ext {
		path = strings.TrimSuffix(path, ext) + r.ext
	}

	absRoot, err := filepath.Abs(r.root)
	if err != nil {
		return "", fmt.Errorf("resolve journal root %s: %w", r.root, err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", path, err)
	}

	// Follow symlinks in the existing part of both sides so a link
	// pointing out of the root cannot smuggle a file past the check.
	checkRoot := resolveExisting(absRoot)
	checkPath := filepath.Join(resolveExisting(filepath.Dir(absPath)), filepath.Base(absPath))

	if !within(checkRoot, checkPath) {
		return "", &PathValidationError{Attempted: absPath, Root: absRoot}
	}
	return absPath, nil
}

// resolveExisting evaluates symlinks on the deepest existing ancestor of
// path and rejoins the non-existing remainder.
func resolveExisting(path string) string {
	remainder := ""
	for current := path; ; {
		if resolved, err := filepath.EvalSymlinks(current); err == nil {
			return filepath.Join(resolved, remainder)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return path
		}
		remainder = filepath.Join(filepath.Base(current), remainder)
		current = parent
	}
}

// within checks containment with a path-separator boundary. A raw string
// prefix would accept siblings like /a/journal2 under root /a/journal.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." {
		return rel == "."
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
