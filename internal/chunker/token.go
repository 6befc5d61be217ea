package chunker

import (
	"strings"
	"unicode/utf8"
)

// EstimateTokens gives a rough token count for log lines and prompt sizing.
// Exact tokenization belongs to the provider.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	// Words are a better proxy for prose, runes/4 for dense text without spaces.
	byWords := int(float64(len(strings.Fields(text))) * 1.33)
	byRunes := utf8.RuneCountInString(text) / 4
	tokens := max(byWords, byRunes)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
