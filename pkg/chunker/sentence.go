package chunker

import (
	"regexp"
	"strings"
)

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]*\s*`)

// SplitSentences breaks text on sentence boundaries. The deterministic
// fallback when LLM chunking is unavailable; guarantees full coverage of
// the input.
func SplitSentences(text string) []string {
	matches := sentencePattern.FindAllString(text, -1)

	var sentences []string
	for _, m := range matches {
		if s := strings.TrimSpace(m); s != "" {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) == 0 {
		if s := strings.TrimSpace(text); s != "" {
			return []string{s}
		}
		return nil
	}
	return sentences
}
