package subtitle

// Cue represents a single timed subtitle display unit produced by the
// segmenter. Times are in seconds from the start of the media.
type Cue struct {
	Start float64 // start time in seconds
	End   float64 // end time in seconds
	Text  string  // display text
}

// Entry is one SRT block, the canonical exchange form of a cue.
// Times are integer milliseconds.
type Entry struct {
	Index   int    // 1-based block index
	StartMS int    // start time in milliseconds
	EndMS   int    // end time in milliseconds
	Text    string // block text, multi-line text joined with spaces
}

// StartSeconds returns the entry start time in seconds.
func (e Entry) StartSeconds() float64 {
	return float64(e.StartMS) / 1000.0
}

// EndSeconds returns the entry end time in seconds.
func (e Entry) EndSeconds() float64 {
	return float64(e.EndMS) / 1000.0
}

// EntryMap builds a lookup from SRT index to entry.
func EntryMap(entries []Entry) map[int]Entry {
	m := make(map[int]Entry, len(entries))
	for _, e := range entries {
		m[e.Index] = e
	}
	return m
}
