// Package sqlite persists conversation sessions and their messages so a
// journaling session survives process restarts independently of the
// in-memory log.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/avelar/jotter/internal/model/conversation"
)

var (
	// ErrSessionExists marks a duplicate session id at creation time,
	// distinct from generic storage failure.
	ErrSessionExists = errors.New("conversation session already exists")

	// ErrConversationNotFound marks a lookup miss.
	ErrConversationNotFound = errors.New("conversation not found")
)

// schema defines the two durable tables and their indexes. Applied on
// every open; idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS conversations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT UNIQUE NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    metadata TEXT
);

CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    conversation_id INTEGER NOT NULL,
    speaker TEXT NOT NULL CHECK (speaker IN ('user', 'assistant')),
    message TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    metadata TEXT,
    FOREIGN KEY (conversation_id) REFERENCES conversations (id)
        ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages (conversation_id);
CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages (timestamp);
CREATE INDEX IF NOT EXISTS idx_conversations_session_id ON conversations (session_id);
`

// Fixed-width so stored timestamps order lexicographically; RFC3339Nano
// drops trailing zeros and would break ORDER BY timestamp.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ConversationRecord is one row of the conversations table.
type ConversationRecord struct {
	ID        int64                 `json:"id"`
	SessionID string                `json:"sessionId"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
	Metadata  conversation.Metadata `json:"metadata"`
}

// MessageRecord is one row of the messages table.
type MessageRecord struct {
	ID             int64                 `json:"id"`
	ConversationID int64                 `json:"conversationId"`
	Speaker        conversation.Speaker  `json:"speaker"`
	Message        string                `json:"message"`
	Timestamp      time.Time             `json:"timestamp"`
	Metadata       conversation.Metadata `json:"metadata"`
}

// Statistics aggregates the durable store's contents.
type Statistics struct {
	TotalConversations             int     `json:"totalConversations"`
	TotalMessages                  int     `json:"totalMessages"`
	AverageMessagesPerConversation float64 `json:"averageMessagesPerConversation"`
	EarliestConversation           string  `json:"earliestConversation,omitempty"`
	LatestActivity                 string  `json:"latestActivity,omitempty"`
	DatabasePath                   string  `json:"databasePath"`
}

// Store is the SQLite-backed conversation store. Safe for concurrent use
// from independent sessions; each write is transactional.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the database at path and applies
// the schema. Foreign keys are enforced on every connection.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateConversation inserts a conversation row for the session. A
// duplicate session id yields ErrSessionExists.
func (s *Store) CreateConversation(ctx context.Context, sessionID string, metadata conversation.Metadata) (int64, error) {
	encoded, err := metadata.Encode()
	if err != nil {
		return 0, fmt.Errorf("encode metadata: %w", err)
	}

	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (session_id, created_at, updated_at, metadata) VALUES (?, ?, ?, ?)`,
		sessionID, now, now, encoded)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("session %s: %w", sessionID, ErrSessionExists)
		}
		return 0, fmt.Errorf("create conversation %s: %w", sessionID, err)
	}
	return res.LastInsertId()
}

// AddMessage appends a message and refreshes the parent conversation's
// updated_at inside one transaction.
func (s *Store) AddMessage(ctx context.Context, conversationID int64, speaker conversation.Speaker, message string, metadata conversation.Metadata) (int64, error) {
	encoded, err := metadata.Encode()
	if err != nil {
		return 0, fmt.Errorf("encode metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(timeLayout)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, speaker, message, timestamp, metadata) VALUES (?, ?, ?, ?, ?)`,
		conversationID, string(speaker), message, now, encoded)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("conversation %d: %w", conversationID, ErrConversationNotFound)
		}
		return 0, fmt.Errorf("insert message: %w", err)
	}

	messageID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("message id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`, now, conversationID); err != nil {
		return 0, fmt.Errorf("refresh conversation timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit message: %w", err)
	}
	return messageID, nil
}

// GetConversationBySessionID looks up a conversation row, returning
// ErrConversationNotFound on a miss.
func (s *Store) GetConversationBySessionID(ctx context.Context, sessionID string) (*ConversationRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, created_at, updated_at, metadata FROM conversations WHERE session_id = ?`,
		sessionID)

	record, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrConversationNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", sessionID, err)
	}
	return record, nil
}

// GetMessagesForConversation returns all messages ordered by timestamp
// ascending, with insertion order as the same-instant tiebreak.
func (s *Store) GetMessagesForConversation(ctx context.Context, conversationID int64) ([]MessageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, speaker, message, timestamp, metadata
		 FROM messages WHERE conversation_id = ? ORDER BY timestamp ASC, id ASC`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("get messages for conversation %d: %w", conversationID, err)
	}
	defer rows.Close()

	var messages []MessageRecord
	for rows.Next() {
		var (
			m           MessageRecord
			speaker     string
			timestamp   string
			rawMetadata sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &speaker, &m.Message, &timestamp, &rawMetadata); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Speaker = conversation.Speaker(speaker)
		if m.Timestamp, err = parseTime(timestamp); err != nil {
			return nil, err
		}
		if m.Metadata, err = conversation.DecodeMetadata(rawMetadata.String); err != nil {
			return nil, fmt.Errorf("decode message metadata: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// GetRecentConversations returns up to limit conversations ordered by
// most recent activity.
func (s *Store) GetRecentConversations(ctx context.Context, limit int) ([]ConversationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, created_at, updated_at, metadata
		 FROM conversations ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent conversations: %w", err)
	}
	defer rows.Close()

	var records []ConversationRecord
	for rows.Next() {
		record, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// DeleteConversation removes the conversation for the session id; the
// FK cascade removes its messages in the same statement. Returns false
// when no such session exists.
func (s *Store) DeleteConversation(ctx context.Context, sessionID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE session_id = ?`, sessionID)
	if err != nil {
		return false, fmt.Errorf("delete conversation %s: %w", sessionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete conversation %s: %w", sessionID, err)
	}
	return affected > 0, nil
}

// Statistics summarizes the store's contents.
func (s *Store) Statistics(ctx context.Context) (Statistics, error) {
	stats := Statistics{DatabasePath: s.path}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&stats.TotalConversations); err != nil {
		return Statistics{}, fmt.Errorf("count conversations: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&stats.TotalMessages); err != nil {
		return Statistics{}, fmt.Errorf("count messages: %w", err)
	}

	var earliest, latest sql.NullString
	if err := s.db.QueryRowContext(ctx,
		`SELECT MIN(created_at), MAX(updated_at) FROM conversations`).Scan(&earliest, &latest); err != nil {
		return Statistics{}, fmt.Errorf("conversation date range: %w", err)
	}
	stats.EarliestConversation = earliest.String
	stats.LatestActivity = latest.String

	if stats.TotalConversations > 0 {
		stats.AverageMessagesPerConversation = float64(stats.TotalMessages) / float64(stats.TotalConversations)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*ConversationRecord, error) {
	var (
		record      ConversationRecord
		createdAt   string
		updatedAt   string
		rawMetadata sql.NullString
	)
	if err := row.Scan(&record.ID, &record.SessionID, &createdAt, &updatedAt, &rawMetadata); err != nil {
		return nil, err
	}

	var err error
	if record.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if record.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if record.Metadata, err = conversation.DecodeMetadata(rawMetadata.String); err != nil {
		return nil, fmt.Errorf("decode conversation metadata: %w", err)
	}
	return &record, nil
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", raw, err)
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
