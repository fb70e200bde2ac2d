package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config aggregates every setting the server needs.
type Config struct {
	Server  ServerConfig
	Journal JournalConfig
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// JournalConfig describes the journal root, naming scheme and backup
// behavior. Directories are created at load time.
type JournalConfig struct {
	JournalDir       string
	FilenamePrefix   string
	FileExtension    string
	MaxRecentEntries int
	EnableBackup     bool
	BackupDir        string
	DatabasePath     string
}

// Load reads configuration from environment variables, validates it and
// creates the journal and backup directories.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	journal, err := loadJournalConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Journal: journal}, nil
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

func loadJournalConfig() (JournalConfig, error) {
	cfg := JournalConfig{
		JournalDir:     getEnvOrDefault("JOURNAL_DIR", "journal"),
		FilenamePrefix: getEnvOrDefault("FILENAME_PREFIX", "journal"),
		FileExtension:  getEnvOrDefault("FILE_EXTENSION", "md"),
	}

	if !strings.HasPrefix(cfg.FileExtension, ".") {
		cfg.FileExtension = "." + cfg.FileExtension
	}

	maxRecent := 5
	if override, err := parseOptionalIntEnv("MAX_RECENT_ENTRIES"); err != nil {
		return JournalConfig{}, err
	} else if override != nil {
		maxRecent = *override
	}
	if maxRecent < 1 {
		return JournalConfig{}, fmt.Errorf("MAX_RECENT_ENTRIES must be at least 1, got %d", maxRecent)
	}
	cfg.MaxRecentEntries = maxRecent

	enableBackup, err := parseBoolEnv("ENABLE_BACKUP", true)
	if err != nil {
		return JournalConfig{}, err
	}
	cfg.EnableBackup = enableBackup

	cfg.BackupDir = strings.TrimSpace(os.Getenv("BACKUP_DIR"))
	if cfg.EnableBackup && cfg.BackupDir == "" {
		cfg.BackupDir = filepath.Join(cfg.JournalDir, "backups")
	}

	cfg.DatabasePath = getEnvOrDefault("DATABASE_PATH", filepath.Join(cfg.JournalDir, "conversations.db"))

	if err := cfg.setupDirectories(); err != nil {
		return JournalConfig{}, err
	}
	return cfg, nil
}

func (c JournalConfig) setupDirectories() error {
	if err := os.MkdirAll(c.JournalDir, 0o755); err != nil {
		return fmt.Errorf("create journal directory %s: %w", c.JournalDir, err)
	}
	if c.EnableBackup {
		if err := os.MkdirAll(c.BackupDir, 0o755); err != nil {
			return fmt.Errorf("create backup directory %s: %w", c.BackupDir, err)
		}
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
