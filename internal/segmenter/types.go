package segmenter

// Word is a single transcript word with its timing, produced upstream
// by the transcription provider. Words arrive ordered by start time.
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Span is a sentence-sized slice of the transcript with the timing and
// word subset assigned to it. Word assignment is purely count-based
// against the global word stream, not semantic.
type Span struct {
	Text       string
	Start      float64
	End        float64
	IsBoundary bool
	Words      []Word
}

// BoundaryDetector splits running text into ordered sentences. A nil
// detector degrades segmentation to a single full-range sentence.
type BoundaryDetector interface {
	Sentences(text string) ([]string, error)
}
