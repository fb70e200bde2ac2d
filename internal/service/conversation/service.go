// Package conversation owns the active journaling session: the in-memory
// log plus best-effort mirroring of every message into the durable store.
//
// The in-memory log is authoritative. A store failure is logged and the
// session keeps going, trading durability for availability; the window of
// inconsistency lasts until the next successfully mirrored message.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/avelar/jotter/internal/analysis/mood"
	convmodel "github.com/avelar/jotter/internal/model/conversation"
	"github.com/avelar/jotter/internal/storage/sqlite"
)

// ErrNoActiveConversation is returned when an operation needs recorded
// entries but the current session has none.
var ErrNoActiveConversation = errors.New("no active conversation")

// Summary describes the current session for callers.
type Summary struct {
	SessionID        string           `json:"sessionId"`
	TotalEntries     int              `json:"totalEntries"`
	UserEntries      int              `json:"userEntries"`
	AssistantEntries int              `json:"assistantEntries"`
	HasContent       bool             `json:"hasContent"`
	FirstEntryTime   *time.Time       `json:"firstEntryTime,omitempty"`
	LastEntryTime    *time.Time       `json:"lastEntryTime,omitempty"`
	SuggestedMood    *mood.Suggestion `json:"suggestedMood,omitempty"`
}

// Service is the session controller. One instance per caller context;
// the mutex serializes access to the single active log.
type Service struct {
	mu    sync.Mutex
	log   *convmodel.Log
	store *sqlite.Store
}

// NewService creates a controller. The store may be nil, in which case
// mirroring is disabled and the session is memory-only.
func NewService(store *sqlite.Store) *Service {
	return &Service{store: store}
}

// currentLog lazily creates the active log. Caller holds s.mu.
func (s *Service) currentLog() *convmodel.Log {
	if s.log == nil {
		s.log = convmodel.NewLog()
		log.Printf("[conversation] new log with session id %s", s.log.SessionID)
	}
	return s.log
}

// StartNewSession discards the current log and begins a fresh session.
// The previous session's durable record is left intact.
func (s *Service) StartNewSession(ctx context.Context) string {
	s.mu.Lock()
	s.log = convmodel.NewLog()
	sessionID := s.log.SessionID
	s.mu.Unlock()

	if s.store != nil {
		if _, err := s.store.CreateConversation(ctx, sessionID, nil); err != nil {
			log.Printf("[conversation] warning: failed to create durable session %s: %v", sessionID, err)
		}
	}

	log.Printf("[conversation] started session %s", sessionID)
	return sessionID
}

// AddInteraction appends a user/assistant pair to the log and mirrors
// both messages into the store.
func (s *Service) AddInteraction(ctx context.Context, userMessage, assistantMessage string, metadata convmodel.Metadata) error {
	s.mu.Lock()
	cur := s.currentLog()
	if err := cur.AddInteraction(userMessage, assistantMessage); err != nil {
		s.mu.Unlock()
		return err
	}
	sessionID := cur.SessionID
	s.mu.Unlock()

	s.mirror(ctx, sessionID, convmodel.SpeakerUser, userMessage, metadata)
	s.mirror(ctx, sessionID, convmodel.SpeakerAssistant, assistantMessage, metadata)
	return nil
}

// AddUserMessage appends a single user message.
func (s *Service) AddUserMessage(ctx context.Context, message string, metadata convmodel.Metadata) error {
	return s.addMessage(ctx, convmodel.SpeakerUser, message, metadata)
}

// AddAssistantMessage appends a single assistant message.
func (s *Service) AddAssistantMessage(ctx context.Context, message string, metadata convmodel.Metadata) error {
	return s.addMessage(ctx, convmodel.SpeakerAssistant, message, metadata)
}

func (s *Service) addMessage(ctx context.Context, speaker convmodel.Speaker, message string, metadata convmodel.Metadata) error {
	s.mu.Lock()
	cur := s.currentLog()
	if err := cur.AddEntry(speaker, message, metadata); err != nil {
		s.mu.Unlock()
		return err
	}
	sessionID := cur.SessionID
	s.mu.Unlock()

	s.mirror(ctx, sessionID, speaker, message, metadata)
	return nil
}

// mirror writes one message into the durable store, lazily creating the
// conversation row on first use. Failures are logged, never surfaced.
func (s *Service) mirror(ctx context.Context, sessionID string, speaker convmodel.Speaker, message string, metadata convmodel.Metadata) {
	if s.store == nil {
		return
	}
	if err := s.saveMessage(ctx, sessionID, speaker, message, metadata); err != nil {
		log.Printf("[conversation] warning: failed to mirror %s message for session %s: %v", speaker, sessionID, err)
	}
}

func (s *Service) saveMessage(ctx context.Context, sessionID string, speaker convmodel.Speaker, message string, metadata convmodel.Metadata) error {
	conversationID, err := s.ensureConversation(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, err := s.store.AddMessage(ctx, conversationID, speaker, message, metadata); err != nil {
		return err
	}
	return nil
}

// ensureConversation resolves the durable row for a session, creating it
// on first message. A concurrent creator is tolerated: losing the insert
// race on the UNIQUE constraint falls back to a fresh lookup.
func (s *Service) ensureConversation(ctx context.Context, sessionID string) (int64, error) {
	record, err := s.store.GetConversationBySessionID(ctx, sessionID)
	if err == nil {
		return record.ID, nil
	}
	if !errors.Is(err, sqlite.ErrConversationNotFound) {
		return 0, err
	}

	id, err := s.store.CreateConversation(ctx, sessionID, nil)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sqlite.ErrSessionExists) {
		return 0, err
	}

	record, err = s.store.GetConversationBySessionID(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("conversation vanished after create race: %w", err)
	}
	return record.ID, nil
}

// Summary reports the current session's shape plus a heuristic mood
// suggestion when there is content to score.
func (s *Service) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.currentLog()
	summary := Summary{
		SessionID:        cur.SessionID,
		TotalEntries:     cur.Len(),
		UserEntries:      len(cur.UserEntries()),
		AssistantEntries: len(cur.AssistantEntries()),
		HasContent:       cur.Len() > 0,
	}
	if first, ok := cur.FirstEntryTime(); ok {
		summary.FirstEntryTime = &first
	}
	if last, ok := cur.LastEntryTime(); ok {
		summary.LastEntryTime = &last
	}
	if summary.HasContent {
		suggestion := mood.Suggest(cur.Entries())
		summary.SuggestedMood = &suggestion
	}
	return summary
}

// HasConversation reports whether the active session holds any entries.
func (s *Service) HasConversation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log != nil && s.log.Len() > 0
}

// Snapshot returns an independent copy of the current log for finalizing
// into a journal entry. ErrNoActiveConversation when there is nothing to
// finalize.
func (s *Service) Snapshot() (*convmodel.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.log == nil || s.log.Len() == 0 {
		return nil, ErrNoActiveConversation
	}
	return s.log.Snapshot(), nil
}

// SessionID returns the active session's id.
func (s *Service) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLog().SessionID
}

// Clear empties the current log and regenerates its session id.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.log != nil {
		previous := s.log.SessionID
		s.log.Clear()
		log.Printf("[conversation] cleared session %s", previous)
	}
}

// ConversationInfo is the per-conversation view served from the durable
// store, with message counts split by speaker.
type ConversationInfo struct {
	SessionID         string             `json:"sessionId"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
	TotalMessages     int                `json:"totalMessages"`
	UserMessages      int                `json:"userMessages"`
	AssistantMessages int                `json:"assistantMessages"`
	Metadata          convmodel.Metadata `json:"metadata"`
}

// RecentConversations lists the most recently active durable sessions.
func (s *Service) RecentConversations(ctx context.Context, limit int) ([]ConversationInfo, error) {
	if s.store == nil {
		return nil, errors.New("durable store not configured")
	}

	records, err := s.store.GetRecentConversations(ctx, limit)
	if err != nil {
		return nil, err
	}

	infos := make([]ConversationInfo, 0, len(records))
	for _, record := range records {
		messages, err := s.store.GetMessagesForConversation(ctx, record.ID)
		if err != nil {
			return nil, err
		}
		info := ConversationInfo{
			SessionID:     record.SessionID,
			CreatedAt:     record.CreatedAt,
			UpdatedAt:     record.UpdatedAt,
			TotalMessages: len(messages),
			Metadata:      record.Metadata,
		}
		for _, m := range messages {
			switch m.Speaker {
			case convmodel.SpeakerUser:
				info.UserMessages++
			case convmodel.SpeakerAssistant:
				info.AssistantMessages++
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// DeleteConversation removes a session and its messages from the durable
// store. Reports whether anything was deleted.
func (s *Service) DeleteConversation(ctx context.Context, sessionID string) (bool, error) {
	if s.store == nil {
		return false, errors.New("durable store not configured")
	}
	return s.store.DeleteConversation(ctx, sessionID)
}

// StoreStatistics summarizes the durable store.
func (s *Service) StoreStatistics(ctx context.Context) (sqlite.Statistics, error) {
	if s.store == nil {
		return sqlite.Statistics{}, errors.New("durable store not configured")
	}
	return s.store.Statistics(ctx)
}

// LoadFromStore rebuilds a conversation from the durable store and adopts
// it as the current session, replacing whatever was active.
func (s *Service) LoadFromStore(ctx context.Context, sessionID string) error {
	if s.store == nil {
		return errors.New("durable store not configured")
	}

	record, err := s.store.GetConversationBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	messages, err := s.store.GetMessagesForConversation(ctx, record.ID)
	if err != nil {
		return err
	}

	entries := make([]convmodel.Entry, len(messages))
	for i, m := range messages {
		entries[i] = convmodel.Entry{
			Speaker:   m.Speaker,
			Message:   m.Message,
			Timestamp: m.Timestamp,
			Metadata:  m.Metadata,
		}
	}

	s.mu.Lock()
	s.log = convmodel.Restore(sessionID, entries)
	s.mu.Unlock()

	log.Printf("[conversation] loaded session %s with %d messages", sessionID, len(messages))
	return nil
}
