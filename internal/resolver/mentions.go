package resolver

import (
	"regexp"
	"strings"
)

// sentenceEnd matches terminal punctuation followed by whitespace. Good
// enough for news prose; abbreviation handling is not worth a dependency.
var sentenceEnd = regexp.MustCompile(`[.!?]+\s+`)

// splitSentences breaks article text into sentences.
func splitSentences(text string) []string {
	var sentences []string
	rest := text
	for {
		loc := sentenceEnd.FindStringIndex(rest)
		if loc == nil {
			break
		}
		if s := strings.TrimSpace(rest[:loc[1]]); s != "" {
			sentences = append(sentences, s)
		}
		rest = rest[loc[1]:]
	}
	if s := strings.TrimSpace(rest); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// FindMentions extracts up to limit sentences of text in which place appears.
func FindMentions(place, text string, limit int) []string {
	var mentions []string
	for _, s := range splitSentences(text) {
		if strings.Contains(s, place) {
			mentions = append(mentions, s)
			if len(mentions) == limit {
				break
			}
		}
	}
	return mentions
}
