package journal

import (
	"errors"
	"strings"
	"testing"

	"github.com/avelar/jotter/internal/model/conversation"
)

func testConversation(t *testing.T) *conversation.Log {
	t.Helper()
	log := conversation.NewLog()
	if err := log.AddInteraction("I felt stretched thin today", "What pulled at you the most?"); err != nil {
		t.Fatalf("AddInteraction err: %v", err)
	}
	return log
}

func TestNewEntryDerivesMetadata(t *testing.T) {
	entry := NewEntry("", testConversation(t), "two words", "", "one")

	if entry.Title == "" || !strings.HasPrefix(entry.Title, "Journal Entry - ") {
		t.Fatalf("unexpected default title %q", entry.Title)
	}
	if entry.Metadata.EntryCount != 2 {
		t.Fatalf("entry count = %d, want 2", entry.Metadata.EntryCount)
	}
	// 6 conversation words + 2 summary + 1 reflection
	if entry.Metadata.WordCount != 14 {
		t.Fatalf("word count = %d, want 14", entry.Metadata.WordCount)
	}
}

func TestMetadataRecomputeIdempotent(t *testing.T) {
	entry := NewEntry("Check-in", testConversation(t), "a short summary", "", "")

	first := entry.Metadata
	entry.refreshMetadata()
	second := entry.Metadata

	if first.WordCount != second.WordCount || first.EntryCount != second.EntryCount {
		t.Fatalf("recompute drifted: %d/%d -> %d/%d",
			first.WordCount, first.EntryCount, second.WordCount, second.EntryCount)
	}
}

func TestSetMoodRatingRange(t *testing.T) {
	entry := NewEntry("Check-in", nil, "", "", "")

	for _, rating := range []int{1, 5, 10} {
		if err := entry.SetMoodRating(rating); err != nil {
			t.Fatalf("SetMoodRating(%d) err: %v", rating, err)
		}
	}
	if err := entry.SetMoodRating(7); err != nil {
		t.Fatalf("SetMoodRating(7) err: %v", err)
	}

	for _, rating := range []int{0, 11, -1} {
		if err := entry.SetMoodRating(rating); !errors.Is(err, ErrMoodOutOfRange) {
			t.Fatalf("SetMoodRating(%d) err = %v, want ErrMoodOutOfRange", rating, err)
		}
		if entry.Metadata.MoodRating != 7 {
			t.Fatalf("rejected rating mutated state: %d", entry.Metadata.MoodRating)
		}
	}
}

func TestAddTagDeduplicates(t *testing.T) {
	entry := NewEntry("Check-in", nil, "", "", "")

	entry.AddTag("work")
	entry.AddTag("sleep")
	entry.AddTag("work")
	entry.AddTag("  ")

	if len(entry.Metadata.Tags) != 2 {
		t.Fatalf("tags = %v, want [work sleep]", entry.Metadata.Tags)
	}
	if entry.Metadata.Tags[0] != "work" || entry.Metadata.Tags[1] != "sleep" {
		t.Fatalf("tag order lost: %v", entry.Metadata.Tags)
	}
}

func TestMarkdownLayout(t *testing.T) {
	entry := NewEntry("Morning Pages", testConversation(t), "A tiring day.", "Mostly drained.", "Rest more.")
	entry.AddTag("work")
	if err := entry.SetMoodRating(4); err != nil {
		t.Fatalf("SetMoodRating err: %v", err)
	}

	doc := entry.Markdown()

	wantOrder := []string{
		"# Morning Pages",
		"**Date:** ",
		"**Tags:** work",
		"**Mood:** 4/10",
		"## Conversation",
		"**You (",
		"**Assistant (",
		"## Summary",
		"A tiring day.",
		"## Emotional Analysis",
		"## Reflections",
		"---",
		"*Word count: ",
	}
	pos := 0
	for _, marker := range wantOrder {
		idx := strings.Index(doc[pos:], marker)
		if idx < 0 {
			t.Fatalf("marker %q missing or out of order in:\n%s", marker, doc)
		}
		pos += idx
	}
}

func TestMarkdownOmitsEmptySections(t *testing.T) {
	entry := NewEntry("Sparse", nil, "", "", "")

	doc := entry.Markdown()

	for _, header := range []string{"## Conversation", "## Summary", "## Emotional Analysis", "## Reflections", "**Tags:**", "**Mood:**"} {
		if strings.Contains(doc, header) {
			t.Fatalf("empty section %q rendered:\n%s", header, doc)
		}
	}
}

func TestMarkdownHeaderRoundTrip(t *testing.T) {
	entry := NewEntry("Evening Review", testConversation(t), "ok", "", "")
	entry.AddTag("habits")
	entry.AddTag("focus")
	if err := entry.SetMoodRating(8); err != nil {
		t.Fatalf("SetMoodRating err: %v", err)
	}

	lines := strings.Split(entry.Markdown(), "\n")

	if lines[0] != "# Evening Review" {
		t.Fatalf("title line = %q", lines[0])
	}
	if lines[1] != "**Date:** "+entry.FormattedDate() {
		t.Fatalf("date line = %q", lines[1])
	}
	if lines[2] != "**Tags:** habits, focus" {
		t.Fatalf("tags line = %q", lines[2])
	}
	if lines[3] != "**Mood:** 8/10" {
		t.Fatalf("mood line = %q", lines[3])
	}
}
