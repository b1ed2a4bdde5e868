// Package translator turns subtitle entries from one language into
// another while nudging the output toward the target language's
// natural narration pace, so downstream synthesis lands close to the
// original timing.
package translator

import (
	"context"

	"github.com/voxlate/voxlate/internal/subtitle"
)

// Translator converts entries into the target language. The returned
// entries keep the original timing and are renumbered from 1.
type Translator interface {
	Translate(ctx context.Context, entries []subtitle.Entry, sourceLang, targetLang string) ([]subtitle.Entry, error)
}
