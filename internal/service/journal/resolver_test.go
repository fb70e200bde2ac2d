package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestResolver(t *testing.T) (*Resolver, string) {
	t.Helper()
	root := t.TempDir()
	return NewResolver(root, "journal", ".md"), root
}

func TestResolveDefaultFilename(t *testing.T) {
	r, root := newTestResolver(t)

	path, err := r.Resolve("")
	if err != nil {
		t.Fatalf("Resolve err: %v", err)
	}

	want := filepath.Join(root, fmt.Sprintf("journal_%s.md", time.Now().Format("2006-01-02")))
	if path != want {
		t.Fatalf("path = %s, want %s", path, want)
	}
}

func TestResolveBareFilenameRelativeToRoot(t *testing.T) {
	r, root := newTestResolver(t)

	path, err := r.Resolve("gratitude.md")
	if err != nil {
		t.Fatalf("Resolve err: %v", err)
	}
	if path != filepath.Join(root, "gratitude.md") {
		t.Fatalf("path = %s", path)
	}
}

func TestResolveEnforcesExtension(t *testing.T) {
	r, root := newTestResolver(t)

	for _, requested := range []string{"notes.txt", "notes"} {
		path, err := r.Resolve(requested)
		if err != nil {
			t.Fatalf("Resolve(%q) err: %v", requested, err)
		}
		if path != filepath.Join(root, "notes.md") {
			t.Fatalf("Resolve(%q) = %s", requested, path)
		}
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	r, root := newTestResolver(t)

	for _, requested := range []string{
		"../../etc/passwd",
		"../sibling.md",
		"/etc/passwd",
		filepath.Join(root, "..", "outside.md"),
	} {
		_, err := r.Resolve(requested)
		var pathErr *PathValidationError
		if !errors.As(err, &pathErr) {
			t.Fatalf("Resolve(%q) err = %v, want PathValidationError", requested, err)
		}
		if pathErr.Root == "" || pathErr.Attempted == "" {
			t.Fatalf("error missing context: %+v", pathErr)
		}
	}
}

func TestResolveRejectsSiblingPrefix(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "journal")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatalf("mkdir err: %v", err)
	}
	sibling := filepath.Join(base, "journal2")
	if err := os.Mkdir(sibling, 0o755); err != nil {
		t.Fatalf("mkdir err: %v", err)
	}

	r := NewResolver(root, "journal", ".md")

	// journal2 shares the string prefix of root but is a sibling.
	_, err := r.Resolve(filepath.Join(sibling, "entry.md"))
	var pathErr *PathValidationError
	if !errors.As(err, &pathErr) {
		t.Fatalf("sibling path accepted: %v", err)
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "journal")
	outside := filepath.Join(base, "outside")
	for _, dir := range []string{root, outside} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatalf("mkdir err: %v", err)
		}
	}
	link := filepath.Join(root, "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	r := NewResolver(root, "journal", ".md")

	_, err := r.Resolve(filepath.Join("escape", "entry.md"))
	var pathErr *PathValidationError
	if !errors.As(err, &pathErr) {
		t.Fatalf("symlink escape accepted: %v", err)
	}
}

func TestResolveAcceptsNestedPath(t *testing.T) {
	r, root := newTestResolver(t)

	path, err := r.Resolve(filepath.Join("2024", "january.md"))
	if err != nil {
		t.Fatalf("Resolve err: %v", err)
	}
	if !strings.HasPrefix(path, root+string(filepath.Separator)) {
		t.Fatalf("path %s not under root %s", path, root)
	}
}
