package journal

import (
	"log"
	"os"
	"strings"
	"time"
)

// CollectionStats aggregates the persisted journal population.
type CollectionStats struct {
	TotalEntries         int    `json:"totalEntries"`
	TotalSizeBytes       int64  `json:"totalSizeBytes"`
	TotalWords           int    `json:"totalWords"`
	AverageWordsPerEntry int    `json:"averageWordsPerEntry"`
	OldestEntry          string `json:"oldestEntry,omitempty"`
	NewestEntry          string `json:"newestEntry,omitempty"`
	JournalDirectory     string `json:"journalDirectory"`
	BackupEnabled        bool   `json:"backupEnabled"`
}

// CollectionStatistics scans every file matching {prefix}*{ext} under the
// journal root. Word counts come from whitespace-splitting file contents;
// unreadable files are skipped with a warning. The date range derives
// from modification times. An empty root yields all-zero statistics.
func (s *Service) CollectionStatistics() (CollectionStats, error) {
	stats := CollectionStats{
		JournalDirectory: s.cfg.JournalDir,
		BackupEnabled:    s.cfg.EnableBackup,
	}

	files, err := s.globEntries()
	if err != nil {
		return CollectionStats{}, err
	}

	var oldest, newest time.Time
	for _, f := range files {
		stats.TotalEntries++
		stats.TotalSizeBytes += f.size

		if oldest.IsZero() || f.modTime.Before(oldest) {
			oldest = f.modTime
		}
		if f.modTime.After(newest) {
			newest = f.modTime
		}

		content, err := os.ReadFile(f.path)
		if err != nil {
			log.Printf("[journal] warning: skipping unreadable journal %s in statistics: %v", f.path, err)
			continue
		}
		stats.TotalWords += len(strings.Fields(string(content)))
	}

	if stats.TotalEntries > 0 {
		stats.AverageWordsPerEntry = stats.TotalWords / stats.TotalEntries
		stats.OldestEntry = oldest.Format(time.RFC3339)
		stats.NewestEntry = newest.Format(time.RFC3339)
	}
	return stats, nil
}
