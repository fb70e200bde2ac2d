package journal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/avelar/jotter/internal/config"
	convmodel "github.com/avelar/jotter/internal/model/conversation"
)

func newTestConfig(t *testing.T) config.JournalConfig {
	t.Helper()
	root := t.TempDir()
	return config.JournalConfig{
		JournalDir:       root,
		FilenamePrefix:   "journal",
		FileExtension:    ".md",
		MaxRecentEntries: 5,
		EnableBackup:     true,
		BackupDir:        filepath.Join(root, "backups"),
	}
}

func testEntryConversation(t *testing.T) *convmodel.Log {
	t.Helper()
	log := convmodel.NewLog()
	if err := log.AddInteraction("today was long", "what made it long?"); err != nil {
		t.Fatalf("AddInteraction err: %v", err)
	}
	return log
}

func TestSaveEntryWritesMarkdown(t *testing.T) {
	svc := NewService(newTestConfig(t))
	entry := svc.CreateEntry("Long Day", testEntryConversation(t), "it dragged", "", "")

	path, err := svc.SaveEntry(entry, "")
	if err != nil {
		t.Fatalf("SaveEntry err: %v", err)
	}
	if entry.FilePath != path {
		t.Fatalf("entry.FilePath = %q, want %q", entry.FilePath, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile err: %v", err)
	}
	if !strings.HasPrefix(string(content), "# Long Day\n") {
		t.Fatalf("unexpected content:\n%s", content)
	}
}

func TestSaveEntryBacksUpExistingFile(t *testing.T) {
	cfg := newTestConfig(t)
	svc := NewService(cfg)

	first := svc.CreateEntry("First", testEntryConversation(t), "v1", "", "")
	path, err := svc.SaveEntry(first, "today.md")
	if err != nil {
		t.Fatalf("first SaveEntry err: %v", err)
	}

	second := svc.CreateEntry("Second", testEntryConversation(t), "v2", "", "")
	if _, err := svc.SaveEntry(second, "today.md"); err != nil {
		t.Fatalf("second SaveEntry err: %v", err)
	}

	backups, err := filepath.Glob(filepath.Join(cfg.BackupDir, "today_*.md"))
	if err != nil {
		t.Fatalf("glob err: %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("got %d backups, want 1", len(backups))
	}

	backupContent, err := os.ReadFile(backups[0])
	if err != nil {
		t.Fatalf("read backup err: %v", err)
	}
	if !strings.Contains(string(backupContent), "# First") {
		t.Fatalf("backup does not hold old content:\n%s", backupContent)
	}

	current, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read destination err: %v", err)
	}
	if !strings.Contains(string(current), "# Second") {
		t.Fatalf("destination does not hold new content:\n%s", current)
	}
}

func TestSaveEntryBackupFailureIsNonFatal(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.BackupDir = "" // backup misconfigured, save must still succeed
	svc := NewService(cfg)

	entry := svc.CreateEntry("One", testEntryConversation(t), "", "", "")
	if _, err := svc.SaveEntry(entry, "today.md"); err != nil {
		t.Fatalf("first SaveEntry err: %v", err)
	}
	entry2 := svc.CreateEntry("Two", testEntryConversation(t), "", "", "")
	if _, err := svc.SaveEntry(entry2, "today.md"); err != nil {
		t.Fatalf("second SaveEntry err: %v", err)
	}
}

func TestSaveEntryRejectsEscape(t *testing.T) {
	svc := NewService(newTestConfig(t))

	entry := svc.CreateEntry("Escape", nil, "", "", "")
	_, err := svc.SaveEntry(entry, "../../outside.md")
	var pathErr *PathValidationError
	if !errors.As(err, &pathErr) {
		t.Fatalf("err = %v, want PathValidationError", err)
	}
	if entry.FilePath != "" {
		t.Fatalf("failed save set FilePath %q", entry.FilePath)
	}
}

func TestLoadEntry(t *testing.T) {
	svc := NewService(newTestConfig(t))

	entry := svc.CreateEntry("Readable", testEntryConversation(t), "short", "", "")
	path, err := svc.SaveEntry(entry, "readable.md")
	if err != nil {
		t.Fatalf("SaveEntry err: %v", err)
	}

	loaded, err := svc.LoadEntry("readable.md")
	if err != nil {
		t.Fatalf("LoadEntry err: %v", err)
	}
	if loaded.Title != "Readable" {
		t.Fatalf("title = %q", loaded.Title)
	}
	if loaded.FilePath != path {
		t.Fatalf("file path = %q, want %q", loaded.FilePath, path)
	}
}

func TestLoadEntryMissing(t *testing.T) {
	svc := NewService(newTestConfig(t))

	_, err := svc.LoadEntry("nope.md")
	if !errors.Is(err, ErrJournalNotFound) {
		t.Fatalf("err = %v, want ErrJournalNotFound", err)
	}
}

func TestDeleteEntryBacksUpFirst(t *testing.T) {
	cfg := newTestConfig(t)
	svc := NewService(cfg)

	entry := svc.CreateEntry("Doomed", testEntryConversation(t), "", "", "")
	path, err := svc.SaveEntry(entry, "doomed.md")
	if err != nil {
		t.Fatalf("SaveEntry err: %v", err)
	}

	if err := svc.DeleteEntry("doomed.md"); err != nil {
		t.Fatalf("DeleteEntry err: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file still exists after delete")
	}

	backups, _ := filepath.Glob(filepath.Join(cfg.BackupDir, "doomed_*.md"))
	if len(backups) != 1 {
		t.Fatalf("got %d backups, want 1", len(backups))
	}

	if err := svc.DeleteEntry("doomed.md"); !errors.Is(err, ErrJournalNotFound) {
		t.Fatalf("second delete err = %v, want ErrJournalNotFound", err)
	}
}

func TestRecentJournalsNewestFirst(t *testing.T) {
	cfg := newTestConfig(t)
	svc := NewService(cfg)

	old := filepath.Join(cfg.JournalDir, "journal_2024-01-01.md")
	if err := os.WriteFile(old, []byte("# Old Entry\nolder words here"), 0o644); err != nil {
		t.Fatalf("WriteFile err: %v", err)
	}
	// Push the old file's mtime into the past.
	past := mustParseTime(t, "2024-01-01T10:00:00Z")
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatalf("Chtimes err: %v", err)
	}

	entry := svc.CreateEntry("New Entry", testEntryConversation(t), "fresh", "", "")
	if _, err := svc.SaveEntry(entry, ""); err != nil {
		t.Fatalf("SaveEntry err: %v", err)
	}

	entries, err := svc.RecentJournals(0)
	if err != nil {
		t.Fatalf("RecentJournals err: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Title != "New Entry" || entries[1].Title != "Old Entry" {
		t.Fatalf("order wrong: %q then %q", entries[0].Title, entries[1].Title)
	}
	if entries[1].WordCount != 6 {
		t.Fatalf("word count = %d, want 6", entries[1].WordCount)
	}
}

func mustParseTime(t *testing.T, raw string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t.Fatalf("parse time %q: %v", raw, err)
	}
	return parsed
}

func TestRecentJournalsRespectsLimit(t *testing.T) {
	cfg := newTestConfig(t)
	svc := NewService(cfg)

	for _, name := range []string{"journal_a.md", "journal_b.md", "journal_c.md"} {
		path := filepath.Join(cfg.JournalDir, name)
		if err := os.WriteFile(path, []byte("# T\nbody"), 0o644); err != nil {
			t.Fatalf("WriteFile err: %v", err)
		}
	}

	entries, err := svc.RecentJournals(2)
	if err != nil {
		t.Fatalf("RecentJournals err: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
}

func TestRecentJournalsContentEmpty(t *testing.T) {
	cfg := newTestConfig(t)
	svc := NewService(cfg)

	content, err := svc.RecentJournalsContent(0)
	if err != nil {
		t.Fatalf("RecentJournalsContent err: %v", err)
	}
	if !strings.Contains(content, "No journal entries found") {
		t.Fatalf("unexpected content: %q", content)
	}
}
