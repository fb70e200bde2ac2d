package mood

import (
	"testing"

	"github.com/avelar/jotter/internal/model/conversation"
)

func entry(speaker conversation.Speaker, message string) conversation.Entry {
	return conversation.Entry{Speaker: speaker, Message: message}
}

func TestSuggestNeutralForEmptyConversation(t *testing.T) {
	got := Suggest(nil)
	if got.Rating != 5 || got.Label != "neutral" {
		t.Fatalf("Suggest(nil) = %+v, want rating 5 neutral", got)
	}
}

func TestSuggestPositive(t *testing.T) {
	got := Suggest([]conversation.Entry{
		entry(conversation.SpeakerUser, "I felt really proud and grateful today!"),
		entry(conversation.SpeakerAssistant, "That sounds wonderful."),
	})
	if got.Label != "positive" {
		t.Fatalf("label = %s, want positive", got.Label)
	}
	if got.Rating <= 5 || got.Rating > 10 {
		t.Fatalf("rating = %d, want in (5,10]", got.Rating)
	}
}

func TestSuggestNegativeClamped(t *testing.T) {
	got := Suggest([]conversation.Entry{
		entry(conversation.SpeakerUser, "sad tired anxious stressed overwhelmed lonely exhausted"),
	})
	if got.Label != "negative" {
		t.Fatalf("label = %s, want negative", got.Label)
	}
	if got.Rating != 1 {
		t.Fatalf("rating = %d, want clamped to 1", got.Rating)
	}
}

func TestSuggestIgnoresAssistantText(t *testing.T) {
	got := Suggest([]conversation.Entry{
		entry(conversation.SpeakerAssistant, "You did an amazing, wonderful job, be proud!"),
	})
	if got.Score != 0 || got.Label != "neutral" {
		t.Fatalf("assistant text scored: %+v", got)
	}
}
