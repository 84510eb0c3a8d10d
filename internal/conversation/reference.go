// internal/conversation/reference.go
package conversation

import (
	"strings"

	"sahayak-workers/internal/models"
)

// The recognizer works over a small closed set of phrases. Anything
// outside the set fails resolution and the caller asks for clarification
// instead of guessing.
var ordinalPhrases = map[string]int{
	"the first one":  1,
	"the second one": 2,
	"the third one":  3,
	"the fourth one": 4,
	"the fifth one":  5,
}

// Phrases that resolve to the most recently referenced opportunity.
var headPhrases = map[string]bool{
	"it":           true,
	"that one":     true,
	"more details": true,
	"tell me more": true,
}

func normalizePhrase(phrase string) string {
	s := strings.ToLower(strings.TrimSpace(phrase))
	s = strings.Trim(s, ".?!,")
	return strings.Join(strings.Fields(s), " ")
}

// IsReferencePhrase reports whether the utterance belongs to the closed
// reference set, so routing can send it down the resolution path without
// consulting the classifier.
func IsReferencePhrase(phrase string) bool {
	p := normalizePhrase(phrase)
	if _, ok := ordinalPhrases[p]; ok {
		return true
	}
	return headPhrases[p]
}

// resolveReference maps a reference phrase onto an opportunity id.
// Ordinals index 1-based into the surfaced list of the most recent turn in
// presentation order; anaphora and detail requests take the head of the
// referenced list. Returns false when the phrase is outside the closed
// set, the list is empty, or the ordinal is out of range.
func resolveReference(c *models.ConversationContext, phrase string) (string, bool) {
	p := normalizePhrase(phrase)

	if n, ok := ordinalPhrases[p]; ok {
		last := c.LastTurn()
		if last == nil || n > len(last.Surfaced) {
			return "", false
		}
		return last.Surfaced[n-1], true
	}

	if headPhrases[p] {
		if len(c.Referenced) == 0 {
			return "", false
		}
		return c.Referenced[0], true
	}

	return "", false
}
