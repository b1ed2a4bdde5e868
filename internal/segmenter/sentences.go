package segmenter

import (
	"strings"

	"github.com/voxlate/voxlate/pkg/log"
)

// boundaryGap is the minimum silence before the next word that marks a
// sentence as a boundary, in seconds.
const boundaryGap = 1.5

// BuildSpans splits the full transcript text into sentence spans and
// assigns words to each span by count, consuming the global word stream
// in order. Tokenization mismatches between the detector and simple
// whitespace splitting desynchronize the assignment; that risk is
// inherited from upstream and left uncorrected.
func BuildSpans(fullText string, words []Word, det BoundaryDetector) []Span {
	if det == nil {
		return []Span{fullRangeSpan(fullText, words)}
	}

	sentences, err := det.Sentences(fullText)
	if err != nil || len(sentences) == 0 {
		if err != nil {
			log.Warn("Sentence boundary detection failed, treating text as one sentence: %v", err)
		}
		return []Span{fullRangeSpan(fullText, words)}
	}

	spans := make([]Span, 0, len(sentences))
	wordIndex := 0

	for _, sent := range sentences {
		sent = strings.TrimSpace(sent)
		if sent == "" {
			continue
		}

		// Hyphenated words count as multiple tokens, matching how the
		// upstream tokenizer tends to split them.
		wordCount := len(strings.Fields(strings.ReplaceAll(sent, "-", " ")))

		var sentWords []Word
		for range wordCount {
			if wordIndex < len(words) {
				sentWords = append(sentWords, words[wordIndex])
				wordIndex++
			}
		}

		if len(sentWords) == 0 {
			// No words matched; fall back to the global time bounds.
			span := fullRangeSpan(sent, words)
			span.Words = nil
			spans = append(spans, span)
			continue
		}

		span := Span{
			Text:  sent,
			Start: sentWords[0].Start,
			End:   sentWords[len(sentWords)-1].End,
			Words: sentWords,
		}
		if wordIndex < len(words) {
			if words[wordIndex].Start-span.End >= boundaryGap {
				span.IsBoundary = true
			}
		}
		spans = append(spans, span)
	}

	return spans
}

func fullRangeSpan(text string, words []Word) Span {
	span := Span{Text: text, Words: words}
	if len(words) > 0 {
		span.Start = words[0].Start
		span.End = words[len(words)-1].End
	}
	return span
}
