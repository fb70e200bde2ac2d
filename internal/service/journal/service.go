// Package journal finalizes conversation sessions into markdown journal
// entries and manages the files under the sandboxed journal root.
package journal

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avelar/jotter/internal/config"
	convmodel "github.com/avelar/jotter/internal/model/conversation"
	journalmodel "github.com/avelar/jotter/internal/model/journal"
)

// ErrJournalNotFound marks a missing journal file.
var ErrJournalNotFound = errors.New("journal file not found")

// Info summarizes one persisted journal file.
type Info struct {
	FilePath  string `json:"filePath"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	Content   string `json:"content"`
	WordCount int    `json:"wordCount"`
	SizeBytes int64  `json:"sizeBytes"`
}

// Service owns journal entry creation, file persistence with backups,
// and reads over the persisted collection.
type Service struct {
	cfg      config.JournalConfig
	resolver *Resolver
}

// NewService builds the journal service for the configured root.
func NewService(cfg config.JournalConfig) *Service {
	return &Service{
		cfg:      cfg,
		resolver: NewResolver(cfg.JournalDir, cfg.FilenamePrefix, cfg.FileExtension),
	}
}

// CreateEntry aggregates a conversation snapshot with authored text into
// a journal entry. Metadata derivation happens in the model.
func (s *Service) CreateEntry(title string, conv *convmodel.Log, summary, emotionalAnalysis, reflections string) *journalmodel.Entry {
	entry := journalmodel.NewEntry(title, conv, summary, emotionalAnalysis, reflections)
	log.Printf("[journal] created entry %q (%d words)", entry.Title, entry.Metadata.WordCount)
	return entry
}

// SaveEntry renders the entry and writes it to the resolved path. An
// existing file is backed up first when backups are enabled; backup
// failure is non-fatal. The destination is written via a temp file and
// rename so a crash mid-write never leaves a truncated journal.
func (s *Service) SaveEntry(entry *journalmodel.Entry, requestedPath string) (string, error) {
	path, err := s.resolver.Resolve(requestedPath)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil && s.cfg.EnableBackup {
		if backupPath, err := s.backupFile(path); err != nil {
			log.Printf("[journal] warning: backup of %s failed: %v", path, err)
		} else {
			log.Printf("[journal] backed up %s to %s", path, backupPath)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", path, err)
	}

	if err := writeAtomic(path, entry.Markdown()); err != nil {
		return "", fmt.Errorf("save journal entry to %s: %w", path, err)
	}

	entry.FilePath = path
	log.Printf("[journal] saved entry to %s", path)
	return path, nil
}

// backupFile copies path into the backup directory under a timestamped
// name, preserving mode and modification time.
func (s *Service) backupFile(path string) (string, error) {
	if s.cfg.BackupDir == "" {
		return "", errors.New("backup directory not configured")
	}

	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	timestamp := time.Now().Format("20060102_150405")
	backupPath := filepath.Join(s.cfg.BackupDir, fmt.Sprintf("%s_%s%s", stem, timestamp, filepath.Ext(base)))

	if err := os.MkdirAll(s.cfg.BackupDir, 0o755); err != nil {
		return "", err
	}
	if err := copyFile(path, backupPath); err != nil {
		return "", err
	}
	return backupPath, nil
}

// LoadEntry reads a persisted journal file back into an entry. Only the
// header is recovered structurally; the title comes from the first
// heading and the date from the file's modification time.
func (s *Service) LoadEntry(requestedPath string) (*journalmodel.Entry, error) {
	path, err := s.resolver.Resolve(requestedPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrJournalNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	entry := journalmodel.NewEntry(titleFromContent(string(content)), nil, "", "", "")
	entry.Date = info.ModTime()
	entry.FilePath = path

	log.Printf("[journal] loaded entry from %s", path)
	return entry, nil
}

// DeleteEntry removes a journal file, taking a backup first when backups
// are enabled.
func (s *Service) DeleteEntry(requestedPath string) error {
	path, err := s.resolver.Resolve(requestedPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", path, ErrJournalNotFound)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if s.cfg.EnableBackup {
		if backupPath, err := s.backupFile(path); err != nil {
			log.Printf("[journal] warning: backup before delete of %s failed: %v", path, err)
		} else {
			log.Printf("[journal] backed up %s to %s before delete", path, backupPath)
		}
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	log.Printf("[journal] deleted entry %s", path)
	return nil
}

// RecentJournals lists the newest persisted entries, newest first by
// modification time. limit <= 0 falls back to the configured maximum.
// Unreadable files are skipped with a warning.
func (s *Service) RecentJournals(limit int) ([]Info, error) {
	if limit <= 0 {
		limit = s.cfg.MaxRecentEntries
	}

	files, err := s.globEntries()
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})
	if len(files) > limit {
		files = files[:limit]
	}

	var entries []Info
	for _, f := range files {
		content, err := os.ReadFile(f.path)
		if err != nil {
			log.Printf("[journal] warning: skipping unreadable journal %s: %v", f.path, err)
			continue
		}
		entries = append(entries, Info{
			FilePath:  f.path,
			Title:     titleFromContent(string(content)),
			Date:      f.modTime.Format("2006-01-02"),
			Content:   string(content),
			WordCount: len(strings.Fields(string(content))),
			SizeBytes: f.size,
		})
	}

	log.Printf("[journal] listed %d recent entries", len(entries))
	return entries, nil
}

// RecentJournalsContent concatenates recent entries into one document,
// the form served to an agent that wants prior context.
func (s *Service) RecentJournalsContent(limit int) (string, error) {
	entries, err := s.RecentJournals(limit)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return fmt.Sprintf("No journal entries found in %s", s.cfg.JournalDir), nil
	}

	var parts []string
	for _, entry := range entries {
		stem := strings.TrimSuffix(filepath.Base(entry.FilePath), filepath.Ext(entry.FilePath))
		datePart := strings.TrimPrefix(stem, s.cfg.FilenamePrefix+"_")
		parts = append(parts, "# Journal from "+datePart, entry.Content, "\n---\n")
	}
	return strings.Join(parts, "\n"), nil
}

type fileInfo struct {
	path    string
	size    int64
	modTime time.Time
}

// globEntries stats every journal file under the root matching
// {prefix}*{ext}. Files that disappear between glob and stat are skipped.
func (s *Service) globEntries() ([]fileInfo, error) {
	pattern := filepath.Join(s.cfg.JournalDir, s.cfg.FilenamePrefix+"*"+s.cfg.FileExtension)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob journal entries: %w", err)
	}

	var files []fileInfo
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			log.Printf("[journal] warning: cannot stat %s: %v", path, err)
			continue
		}
		if info.IsDir() {
			continue
		}
		files = append(files, fileInfo{path: path, size: info.Size(), modTime: info.ModTime()})
	}
	return files, nil
}

func titleFromContent(content string) string {
	line, _, _ := strings.Cut(content, "\n")
	if strings.HasPrefix(line, "# ") {
		return strings.TrimSpace(line[2:])
	}
	return "Untitled Entry"
}

// writeAtomic writes content to a temp file in the destination directory
// and renames it into place, so an interrupted write cannot leave a
// truncated file where a valid one stood.
func writeAtomic(path, content string) error {
	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, time.Now(), info.ModTime())
}
