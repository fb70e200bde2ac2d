package conversation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrEmptyMessage rejects blank or whitespace-only message content.
var ErrEmptyMessage = errors.New("message must not be empty")

// Speaker identifies who produced a conversation entry.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Entry is a single immutable message in a conversation.
type Entry struct {
	Speaker   Speaker   `json:"speaker"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  Metadata  `json:"metadata,omitempty"`
}

// Log is the ordered, append-only record of one journaling session.
// It is not safe for concurrent mutation; the owning session controller
// serializes access.
type Log struct {
	SessionID string
	entries   []Entry
}

// NewLog creates an empty log with a freshly generated session id.
func NewLog() *Log {
	return &Log{SessionID: NewSessionID()}
}

// Restore rebuilds a log from previously persisted entries, keeping the
// original session id.
func Restore(sessionID string, entries []Entry) *Log {
	return &Log{SessionID: sessionID, entries: append([]Entry(nil), entries...)}
}

// AddEntry appends a message. Blank messages are rejected before any
// mutation takes place.
func (l *Log) AddEntry(speaker Speaker, message string, metadata Metadata) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	l.entries = append(l.entries, Entry{
		Speaker:   speaker,
		Message:   message,
		Timestamp: time.Now(),
		Metadata:  metadata.Clone(),
	})
	return nil
}

// AddInteraction appends a user message followed by the assistant reply
// as two entries. If either message is blank the log is left unchanged.
func (l *Log) AddInteraction(userMessage, assistantMessage string) error {
	if strings.TrimSpace(userMessage) == "" || strings.TrimSpace(assistantMessage) == "" {
		return ErrEmptyMessage
	}
	if err := l.AddEntry(SpeakerUser, userMessage, nil); err != nil {
		return err
	}
	return l.AddEntry(SpeakerAssistant, assistantMessage, nil)
}

// Clear drops all entries and regenerates the session id.
func (l *Log) Clear() {
	l.entries = nil
	l.SessionID = NewSessionID()
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns a copy of all entries in insertion order.
func (l *Log) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// UserEntries returns only the entries spoken by the user.
func (l *Log) UserEntries() []Entry {
	return l.filter(SpeakerUser)
}

// AssistantEntries returns only the entries spoken by the assistant.
func (l *Log) AssistantEntries() []Entry {
	return l.filter(SpeakerAssistant)
}

func (l *Log) filter(speaker Speaker) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.Speaker == speaker {
			out = append(out, e)
		}
	}
	return out
}

// FirstEntryTime reports the timestamp of the oldest entry.
func (l *Log) FirstEntryTime() (time.Time, bool) {
	if len(l.entries) == 0 {
		return time.Time{}, false
	}
	return l.entries[0].Timestamp, true
}

// LastEntryTime reports the timestamp of the newest entry.
func (l *Log) LastEntryTime() (time.Time, bool) {
	if len(l.entries) == 0 {
		return time.Time{}, false
	}
	return l.entries[len(l.entries)-1].Timestamp, true
}

// Snapshot returns an independent copy of the log. A finalized journal
// entry embeds a snapshot so later appends cannot alter it.
func (l *Log) Snapshot() *Log {
	copied := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		e.Metadata = e.Metadata.Clone()
		copied[i] = e
	}
	return &Log{SessionID: l.SessionID, entries: copied}
}

const sessionIDLayout = "20060102_150405"

var (
	sessionIDMu   sync.Mutex
	lastSessionID string
	sessionIDSeq  int
)

// NewSessionID generates a second-resolution session id. Two ids minted
// within the same second get a monotonic counter suffix so they never
// collide in the durable store.
func NewSessionID() string {
	sessionIDMu.Lock()
	defer sessionIDMu.Unlock()

	id := time.Now().Format(sessionIDLayout)
	if id == lastSessionID {
		sessionIDSeq++
		return fmt.Sprintf("%s_%d", id, sessionIDSeq)
	}
	lastSessionID = id
	sessionIDSeq = 0
	return id
}
