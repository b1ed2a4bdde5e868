// Package optimizer regroups subtitle entries into synthesis-ready
// units: consecutive entries merge while the running text has not yet
// reached a sentence end and the timing gap between them stays small.
package optimizer

import (
	"strings"

	"github.com/voxlate/voxlate/internal/subtitle"
)

// mergeMaxGap is the largest silence between two entries, in seconds,
// across which they may still merge into one unit.
const mergeMaxGap = 1.2

// Unit is one or more consecutive SRT entries merged into a single text
// block intended for one synthesis call. SrtEntries holds the original
// entry indices in order; the unit's position in the result list is its
// synthesis and storage key.
type Unit struct {
	Text       string `json:"text"`
	SrtEntries []int  `json:"srt_entries"`
}

var sentenceEnders = map[rune]bool{
	'.': true,
	'!': true,
	'?': true,
	'…': true,
	'”': true,
	'"': true,
}

// endsSentence reports whether text ends with terminal punctuation.
func endsSentence(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	runes := []rune(trimmed)
	return sentenceEnders[runes[len(runes)-1]]
}

// Optimize merges entries into units in a single forward pass. The
// returned units form an exact, order-preserving partition of the
// input indices.
func Optimize(entries []subtitle.Entry) []Unit {
	if len(entries) == 0 {
		return nil
	}

	units := make([]Unit, 0, len(entries))
	current := Unit{
		Text:       entries[0].Text,
		SrtEntries: []int{entries[0].Index},
	}

	for i := 1; i < len(entries); i++ {
		prev := entries[i-1]
		curr := entries[i]
		gap := float64(curr.StartMS-prev.EndMS) / 1000.0

		if !endsSentence(prev.Text) && gap <= mergeMaxGap {
			current.Text += " " + curr.Text
			current.SrtEntries = append(current.SrtEntries, curr.Index)
			continue
		}

		units = append(units, current)
		current = Unit{
			Text:       curr.Text,
			SrtEntries: []int{curr.Index},
		}
	}

	return append(units, current)
}
