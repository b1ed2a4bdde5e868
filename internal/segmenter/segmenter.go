package segmenter

import (
	"strings"

	"github.com/voxlate/voxlate/internal/subtitle"
	"github.com/voxlate/voxlate/pkg/log"
)

const (
	// maxLineChars is the preferred maximum cue length.
	maxLineChars = 42
	// graceChars is the hard threshold above which the buffer is cut.
	graceChars = 45
	// minFlushChars is the minimum buffer length before a flush.
	minFlushChars = 30
	// spaceCutWindow limits how far below the limit a space cut may land.
	spaceCutWindow = 10
	// minCueSeconds is the minimum display duration for a flushed cue.
	minCueSeconds = 2.5
)

// GenerateCues builds display-ready cues from the full transcript text
// and its word timings. The detector may be nil; segmentation then
// degrades to one sentence spanning the whole word-time range.
func GenerateCues(fullText string, words []Word, det BoundaryDetector) []subtitle.Cue {
	spans := BuildSpans(fullText, words, det)
	return BuildCues(spans)
}

// buffer accumulates sentence spans until they flush into a cue.
type buffer struct {
	text  string
	start float64
	end   float64
	words []Word
}

func (b *buffer) empty() bool { return b.text == "" }

func (b *buffer) reset() {
	*b = buffer{}
}

func (b *buffer) absorb(span Span) {
	if b.empty() {
		b.text = span.Text
		b.start = span.Start
		b.end = span.End
		b.words = append([]Word(nil), span.Words...)
		return
	}
	b.text = strings.TrimSpace(strings.ReplaceAll(b.text+" "+span.Text, "  ", " "))
	b.end = span.End
	b.words = append(b.words, span.Words...)
}

// BuildCues folds sentence spans into cues: spans accumulate until the
// buffer exceeds the grace threshold, overflow is cut at the preferred
// line length with word-aligned timing, and the buffer flushes once it
// is long enough or the span was a boundary.
func BuildCues(spans []Span) []subtitle.Cue {
	var cues []subtitle.Cue
	var buf buffer

	for i, span := range spans {
		buf.absorb(span)

		// Cut overflowing text down to size, emitting cues for the
		// retained prefixes and carrying the remainder forward.
		for len([]rune(buf.text)) > graceChars {
			head, tail := optimizeCut(buf.text, maxLineChars)
			if head == "" {
				log.Warn("Could not split overlong subtitle text: %q", buf.text)
				break
			}

			cue, rest := splitByWordAlignment(&buf, head, tail)
			extendShortCue(&cue, spans, i)
			cues = append(cues, cue)
			buf = rest
		}

		if len([]rune(buf.text)) >= minFlushChars || span.IsBoundary {
			if buf.empty() {
				continue
			}
			cue := subtitle.Cue{Start: buf.start, End: buf.end, Text: strings.TrimSpace(buf.text)}
			extendShortCue(&cue, spans, i)
			cues = append(cues, cue)
			buf.reset()
		}
	}

	if !buf.empty() {
		cues = append(cues, subtitle.Cue{
			Start: buf.start,
			End:   buf.end,
			Text:  strings.TrimSpace(buf.text),
		})
	}

	return cues
}

// optimizeCut finds a cut at or before maxLen, preferring a comma, then
// a space within spaceCutWindow of the limit, then a hard character cut.
func optimizeCut(text string, maxLen int) (string, string) {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text, ""
	}

	if idx := lastRuneIndex(runes[:maxLen], ','); idx != -1 {
		return cutAt(runes, idx)
	}
	if idx := lastRuneIndex(runes[:maxLen], ' '); idx != -1 && maxLen-idx <= spaceCutWindow {
		return cutAt(runes, idx)
	}

	return strings.TrimSpace(string(runes[:maxLen])), strings.TrimSpace(string(runes[maxLen:]))
}

// cutAt splits after the cut rune, trimming both sides.
func cutAt(runes []rune, idx int) (string, string) {
	return strings.TrimSpace(string(runes[:idx+1])), strings.TrimSpace(string(runes[idx+1:]))
}

func lastRuneIndex(runes []rune, target rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == target {
			return i
		}
	}
	return -1
}

// splitByWordAlignment re-partitions the buffer's word list by counting
// the words retained in head. The emitted cue takes the retained words'
// timing bounds; the remaining words carry forward with the tail text.
func splitByWordAlignment(buf *buffer, head, tail string) (subtitle.Cue, buffer) {
	headWordCount := len(strings.Fields(head))

	if len(buf.words) == 0 {
		// No word timings available; split the buffer interval roughly.
		log.Warn("No words available for alignment, using rough timing")
		cue := subtitle.Cue{Start: buf.start, End: buf.start + 1, Text: head}
		rest := buffer{text: tail, start: cue.End, end: buf.end}
		return cue, rest
	}

	if headWordCount > len(buf.words) {
		log.Warn("Cut text has %d words but only %d words available", headWordCount, len(buf.words))
		headWordCount = len(buf.words)
	}

	headWords := buf.words[:headWordCount]
	restWords := buf.words[headWordCount:]

	cue := subtitle.Cue{
		Start: headWords[0].Start,
		End:   headWords[len(headWords)-1].End,
		Text:  head,
	}

	rest := buffer{text: tail, words: restWords}
	if len(restWords) > 0 {
		rest.start = restWords[0].Start
		rest.end = restWords[len(restWords)-1].End
	} else {
		rest.start = cue.End
		rest.end = cue.End + 1
	}

	return cue, rest
}

// extendShortCue stretches a too-short cue to the minimum duration, but
// never past the start of the next sentence span.
func extendShortCue(cue *subtitle.Cue, spans []Span, i int) {
	if cue.End-cue.Start >= minCueSeconds {
		return
	}
	if i+1 >= len(spans) {
		return
	}
	nextStart := spans[i+1].Start
	extended := cue.Start + minCueSeconds
	if nextStart < extended {
		extended = nextStart
	}
	cue.End = extended
}
