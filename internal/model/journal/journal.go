package journal

import (
	"errors"
	"strings"
	"time"

	"github.com/avelar/jotter/internal/model/conversation"
)

// ErrMoodOutOfRange rejects mood ratings outside the 1-10 scale.
var ErrMoodOutOfRange = errors.New("mood rating must be between 1 and 10")

// Metadata carries the derived bookkeeping for a journal entry. WordCount
// and EntryCount are always recomputed from content, never authored.
type Metadata struct {
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
	WordCount    int                   `json:"wordCount"`
	EntryCount   int                   `json:"entryCount"`
	Tags         []string              `json:"tags,omitempty"`
	MoodRating   int                   `json:"moodRating,omitempty"`
	CustomFields conversation.Metadata `json:"customFields,omitempty"`
}

// HasMood reports whether a mood rating has been set.
func (m *Metadata) HasMood() bool {
	return m.MoodRating >= 1 && m.MoodRating <= 10
}

// Entry is a finalized journal entry: a conversation snapshot plus the
// authored summary, analysis and reflection text.
type Entry struct {
	Title             string
	Date              time.Time
	Conversation      *conversation.Log
	Summary           string
	EmotionalAnalysis string
	Reflections       string
	Metadata          Metadata
	FilePath          string
}

// NewEntry builds a journal entry and derives its metadata. The title
// defaults to the current date and a nil conversation becomes an empty
// log so rendering never has to nil-check.
func NewEntry(title string, conv *conversation.Log, summary, emotionalAnalysis, reflections string) *Entry {
	now := time.Now()
	if title == "" {
		title = "Journal Entry - " + now.Format("January 2, 2006")
	}
	if conv == nil {
		conv = conversation.NewLog()
	}

	e := &Entry{
		Title:             title,
		Date:              now,
		Conversation:      conv,
		Summary:           summary,
		EmotionalAnalysis: emotionalAnalysis,
		Reflections:       reflections,
		Metadata:          Metadata{CreatedAt: now, UpdatedAt: now},
	}
	e.refreshMetadata()
	return e
}

// AddTag records a tag, ignoring duplicates while preserving insertion
// order, then re-derives metadata.
func (e *Entry) AddTag(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}
	for _, existing := range e.Metadata.Tags {
		if existing == tag {
			return
		}
	}
	e.Metadata.Tags = append(e.Metadata.Tags, tag)
	e.refreshMetadata()
}

// RemoveTag deletes a tag if present and re-derives metadata.
func (e *Entry) RemoveTag(tag string) {
	for i, existing := range e.Metadata.Tags {
		if existing == tag {
			e.Metadata.Tags = append(e.Metadata.Tags[:i], e.Metadata.Tags[i+1:]...)
			e.refreshMetadata()
			return
		}
	}
}

// SetMoodRating records a 1-10 mood rating. Out-of-range values leave the
// entry untouched.
func (e *Entry) SetMoodRating(rating int) error {
	if rating < 1 || rating > 10 {
		return ErrMoodOutOfRange
	}
	e.Metadata.MoodRating = rating
	e.refreshMetadata()
	return nil
}

// refreshMetadata re-derives word and entry counts from current content.
// Deterministic for unchanged content; only UpdatedAt advances.
func (e *Entry) refreshMetadata() {
	e.Metadata.EntryCount = e.Conversation.Len()
	e.Metadata.WordCount = e.wordCount()
	e.Metadata.UpdatedAt = time.Now()
}

func (e *Entry) wordCount() int {
	total := 0
	for _, entry := range e.Conversation.Entries() {
		total += len(strings.Fields(entry.Message))
	}
	total += len(strings.Fields(e.Summary))
	total += len(strings.Fields(e.EmotionalAnalysis))
	total += len(strings.Fields(e.Reflections))
	return total
}

// FormattedDate renders the long form used in the document header.
func (e *Entry) FormattedDate() string {
	return e.Date.Format("January 2, 2006")
}

// ShortDate renders the form used in filenames.
func (e *Entry) ShortDate() string {
	return e.Date.Format("2006-01-02")
}
