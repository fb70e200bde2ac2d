// Package mood scores conversation text with a keyword heuristic and
// proposes a 1-10 mood rating. Advisory only; the caller decides whether
// to record it on the journal entry.
package mood

import (
	"strings"

	"github.com/avelar/jotter/internal/model/conversation"
)

// Suggestion is the analyzer's verdict for one conversation.
type Suggestion struct {
	Rating int    `json:"rating"`
	Label  string `json:"label"`
	Score  int    `json:"score"`
}

var positiveKeywords = []string{
	"happy", "glad", "great", "grateful", "proud", "calm", "relaxed",
	"excited", "hopeful", "energized", "accomplished", "content", "love",
	"wonderful", "amazing", "better", "rested", "peaceful",
}

var negativeKeywords = []string{
	"sad", "tired", "anxious", "stressed", "angry", "frustrated",
	"overwhelmed", "lonely", "worried", "exhausted", "drained", "upset",
	"hopeless", "afraid", "guilty", "hurt", "worse", "cry",
}

// Suggest derives a mood rating from the user's side of the conversation.
// The baseline is 5; every keyword hit nudges it one step, exclamation
// marks amplify whichever direction already leads.
func Suggest(entries []conversation.Entry) Suggestion {
	positive, negative := 0, 0
	exclaims := 0

	for _, entry := range entries {
		if entry.Speaker != conversation.SpeakerUser {
			continue
		}
		text := strings.ToLower(entry.Message)
		for _, kw := range positiveKeywords {
			positive += strings.Count(text, kw)
		}
		for _, kw := range negativeKeywords {
			negative += strings.Count(text, kw)
		}
		exclaims += strings.Count(text, "!")
	}

	score := positive - negative
	if score > 0 && exclaims > 0 {
		score++
	}
	if score < 0 && exclaims > 0 {
		score--
	}

	rating := 5 + score
	if rating < 1 {
		rating = 1
	}
	if rating > 10 {
		rating = 10
	}

	label := "neutral"
	switch {
	case score > 0:
		label = "positive"
	case score < 0:
		label = "negative"
	}

	return Suggestion{Rating: rating, Label: label, Score: score}
}
