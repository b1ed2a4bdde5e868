package subtitle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	blockSeparator = regexp.MustCompile(`\n{2,}`)
	timestampRe    = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2}),(\d{3})$`)
)

// ParseTimestamp parses an SRT timestamp (HH:MM:SS,mmm) to milliseconds.
func ParseTimestamp(s string) (int, error) {
	matches := timestampRe.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return 0, fmt.Errorf("invalid timestamp: %q", s)
	}

	h, _ := strconv.Atoi(matches[1])
	m, _ := strconv.Atoi(matches[2])
	sec, _ := strconv.Atoi(matches[3])
	ms, _ := strconv.Atoi(matches[4])

	return h*3600000 + m*60000 + sec*1000 + ms, nil
}

// FormatTimestamp formats milliseconds as an SRT timestamp (HH:MM:SS,mmm).
func FormatTimestamp(ms int) string {
	hours := ms / 3600000
	minutes := (ms % 3600000) / 60000
	seconds := (ms % 60000) / 1000
	millis := ms % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

// SecondsToMS converts a time in seconds to integer milliseconds.
func SecondsToMS(seconds float64) int {
	return int(math.Round(seconds * 1000))
}

// ParseEntries parses SRT text into an ordered entry list. Blocks are
// separated by one or more blank lines; each block carries an index line,
// a time line and at least one text line. A malformed block is a hard
// error: downstream stages depend on a complete, index-dense entry set.
func ParseEntries(text string) ([]Entry, error) {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	trimmed := strings.TrimSpace(normalized)
	if trimmed == "" {
		return nil, fmt.Errorf("empty SRT input")
	}

	blocks := blockSeparator.Split(trimmed, -1)
	entries := make([]Entry, 0, len(blocks))

	for i, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 3 {
			return nil, fmt.Errorf("malformed SRT block %d: expected index, time and text lines", i+1)
		}

		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return nil, fmt.Errorf("malformed SRT block %d: invalid index %q", i+1, lines[0])
		}

		startStr, endStr, ok := strings.Cut(lines[1], "-->")
		if !ok {
			return nil, fmt.Errorf("malformed SRT block %d: invalid time line %q", i+1, lines[1])
		}
		startMS, err := ParseTimestamp(startStr)
		if err != nil {
			return nil, fmt.Errorf("malformed SRT block %d: %w", i+1, err)
		}
		endMS, err := ParseTimestamp(endStr)
		if err != nil {
			return nil, fmt.Errorf("malformed SRT block %d: %w", i+1, err)
		}

		entries = append(entries, Entry{
			Index:   index,
			StartMS: startMS,
			EndMS:   endMS,
			Text:    strings.TrimSpace(strings.Join(lines[2:], " ")),
		})
	}

	return entries, nil
}

// FormatEntries renders entries as SRT text, preserving their indices.
func FormatEntries(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%d\n", e.Index)
		fmt.Fprintf(&b, "%s --> %s\n", FormatTimestamp(e.StartMS), FormatTimestamp(e.EndMS))
		fmt.Fprintf(&b, "%s\n\n", e.Text)
	}
	return b.String()
}

// FormatCues renders cues as SRT text with 1-based sequential indices.
func FormatCues(cues []Cue) string {
	entries := make([]Entry, 0, len(cues))
	for i, c := range cues {
		entries = append(entries, Entry{
			Index:   i + 1,
			StartMS: SecondsToMS(c.Start),
			EndMS:   SecondsToMS(c.End),
			Text:    c.Text,
		})
	}
	return FormatEntries(entries)
}
