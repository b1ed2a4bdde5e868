package segmenter

import (
	"strings"
	"unicode"
)

// RuleBasedDetector is the built-in sentence-boundary detector. It cuts
// after terminal punctuation followed by whitespace, keeping trailing
// closing quotes with the sentence they end.
type RuleBasedDetector struct{}

// NewRuleBasedDetector creates the default boundary detector.
func NewRuleBasedDetector() BoundaryDetector {
	return RuleBasedDetector{}
}

func isTerminalRune(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}

func isClosingRune(r rune) bool {
	switch r {
	case '"', '”', '\'', '’', ')', ']':
		return true
	}
	return false
}

// Sentences splits text after runs of terminal punctuation (plus any
// closing quotes) that are followed by whitespace or end of input.
func (RuleBasedDetector) Sentences(text string) ([]string, error) {
	runes := []rune(text)
	var sentences []string
	var current strings.Builder

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if !isTerminalRune(r) {
			continue
		}

		// Consume the rest of the punctuation run and closing quotes.
		j := i + 1
		for j < len(runes) && (isTerminalRune(runes[j]) || isClosingRune(runes[j])) {
			current.WriteRune(runes[j])
			j++
		}
		i = j - 1

		if j >= len(runes) || unicode.IsSpace(runes[j]) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences, nil
}
