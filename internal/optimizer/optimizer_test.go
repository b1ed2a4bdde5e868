package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlate/voxlate/internal/subtitle"
)

func entry(index, startMS, endMS int, text string) subtitle.Entry {
	return subtitle.Entry{Index: index, StartMS: startMS, EndMS: endMS, Text: text}
}

func TestOptimizeMergesAcrossSmallGap(t *testing.T) {
	entries := []subtitle.Entry{
		entry(1, 0, 1000, "Hello there"),
		entry(2, 1500, 2500, "friend."),
	}

	units := Optimize(entries)
	require.Len(t, units, 1)
	assert.Equal(t, "Hello there friend.", units[0].Text)
	assert.Equal(t, []int{1, 2}, units[0].SrtEntries)
}

func TestOptimizeSentenceEndBlocksMerge(t *testing.T) {
	entries := []subtitle.Entry{
		entry(1, 0, 1000, "Hello there."),
		entry(2, 1100, 2500, "Friend."),
	}

	units := Optimize(entries)
	require.Len(t, units, 2)
	assert.Equal(t, []int{1}, units[0].SrtEntries)
	assert.Equal(t, []int{2}, units[1].SrtEntries)
}

func TestOptimizeLargeGapBlocksMerge(t *testing.T) {
	entries := []subtitle.Entry{
		entry(1, 0, 1000, "Hello there"),
		entry(2, 2300, 3500, "friend."),
	}

	// Gap of 1.3s exceeds the merge limit even without punctuation.
	units := Optimize(entries)
	require.Len(t, units, 2)
}

func TestOptimizeGapAtLimitMerges(t *testing.T) {
	entries := []subtitle.Entry{
		entry(1, 0, 1000, "no punctuation"),
		entry(2, 2200, 3000, "at all"),
	}

	units := Optimize(entries)
	require.Len(t, units, 1)
	assert.Equal(t, "no punctuation at all", units[0].Text)
}

func TestOptimizeTerminalPunctuationVariants(t *testing.T) {
	for _, text := range []string{"done.", "done!", "done?", "done…", "done”", `done"`} {
		entries := []subtitle.Entry{
			entry(1, 0, 1000, text),
			entry(2, 1100, 2000, "next"),
		}
		units := Optimize(entries)
		assert.Len(t, units, 2, "text %q should end the unit", text)
	}
}

func TestOptimizePartitionLaw(t *testing.T) {
	entries := []subtitle.Entry{
		entry(1, 0, 900, "The meeting started late"),
		entry(2, 1000, 2000, "because of the storm."),
		entry(3, 2100, 3000, "Nobody minded"),
		entry(4, 5000, 6000, "after such a week"),
		entry(5, 6100, 7000, "of long days."),
	}

	units := Optimize(entries)
	require.NotEmpty(t, units)

	var flattened []int
	for _, u := range units {
		require.NotEmpty(t, u.SrtEntries)
		flattened = append(flattened, u.SrtEntries...)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, flattened)

	// Entry 3 → 4 has a 2s gap, so they land in different units.
	require.Len(t, units, 3)
	assert.Equal(t, []int{1, 2}, units[0].SrtEntries)
	assert.Equal(t, []int{3}, units[1].SrtEntries)
	assert.Equal(t, []int{4, 5}, units[2].SrtEntries)
}

func TestOptimizeEmptyInput(t *testing.T) {
	assert.Nil(t, Optimize(nil))
}

func TestOptimizeSingleEntry(t *testing.T) {
	units := Optimize([]subtitle.Entry{entry(7, 0, 1000, "alone")})
	require.Len(t, units, 1)
	assert.Equal(t, []int{7}, units[0].SrtEntries)
}
