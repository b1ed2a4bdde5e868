package translator

import (
	"math"

	"github.com/voxlate/voxlate/pkg/log"
)

// paceRate is a language's typical narration speed: words and
// syllables per unit of speaking time, on a common relative scale.
type paceRate struct {
	Words     float64
	Syllables float64
}

var paceRates = map[string]paceRate{
	"en": {Words: 10.0, Syllables: 10.0},
	"pt": {Words: 11.0, Syllables: 11.8},
	"es": {Words: 10.8, Syllables: 11.5},
	"hi": {Words: 12.5, Syllables: 13.5},
	"in": {Words: 11.2, Syllables: 12.2},
	"he": {Words: 10.6, Syllables: 11.0},
	"ar": {Words: 11.8, Syllables: 12.6},
	"fr": {Words: 10.5, Syllables: 11.3},
}

// languagePaceDiff returns the rounded percentage difference in words
// and syllables between the target and source language rates. Unknown
// languages yield (0, 0), which drops the pace guidance from the
// prompt.
func languagePaceDiff(sourceLang, targetLang string) (wordPct, syllablePct int) {
	src, okSrc := paceRates[sourceLang]
	tgt, okTgt := paceRates[targetLang]
	if !okSrc || !okTgt {
		log.Warn("No pace data for language pair %s->%s", sourceLang, targetLang)
		return 0, 0
	}
	wordPct = int(math.Round((tgt.Words/src.Words - 1) * 100))
	syllablePct = int(math.Round((tgt.Syllables/src.Syllables - 1) * 100))
	log.Info("Language pace diff %s->%s: words=%d%%, syllables=%d%%", sourceLang, targetLang, wordPct, syllablePct)
	return wordPct, syllablePct
}
