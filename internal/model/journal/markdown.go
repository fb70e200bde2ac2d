package journal

import (
	"fmt"
	"strings"

	"github.com/avelar/jotter/internal/model/conversation"
)

// Markdown serializes the entry into its canonical document form. Pure
// and deterministic for identical entry content; sections with empty
// content are omitted entirely.
func (e *Entry) Markdown() string {
	var lines []string

	lines = append(lines, "# "+e.Title)
	lines = append(lines, "**Date:** "+e.FormattedDate())

	if len(e.Metadata.Tags) > 0 {
		lines = append(lines, "**Tags:** "+strings.Join(e.Metadata.Tags, ", "))
	}
	if e.Metadata.HasMood() {
		lines = append(lines, fmt.Sprintf("**Mood:** %d/10", e.Metadata.MoodRating))
	}
	lines = append(lines, "")

	if e.Conversation.Len() > 0 {
		lines = append(lines, "## Conversation", "")
		for _, entry := range e.Conversation.Entries() {
			speaker := "Assistant"
			if entry.Speaker == conversation.SpeakerUser {
				speaker = "You"
			}
			lines = append(lines, fmt.Sprintf("**%s (%s)**: %s", speaker, entry.Timestamp.Format("15:04"), entry.Message))
			lines = append(lines, "")
		}
	}

	if e.Summary != "" {
		lines = append(lines, "## Summary", e.Summary, "")
	}
	if e.EmotionalAnalysis != "" {
		lines = append(lines, "## Emotional Analysis", e.EmotionalAnalysis, "")
	}
	if e.Reflections != "" {
		lines = append(lines, "## Reflections", e.Reflections, "")
	}

	lines = append(lines, "---")
	lines = append(lines, fmt.Sprintf("*Word count: %d | Entries: %d | Created: %s*",
		e.Metadata.WordCount, e.Metadata.EntryCount, e.Metadata.CreatedAt.Format("2006-01-02 15:04")))

	return strings.Join(lines, "\n")
}
