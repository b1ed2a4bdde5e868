package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProbeDuration(t *testing.T) {
	output := []byte(`{"format":{"filename":"x.mp3","duration":"12.345000"}}`)
	d, err := parseProbeDuration(output)
	require.NoError(t, err)
	assert.InDelta(t, 12.345, d, 1e-9)
}

func TestParseProbeDurationMissing(t *testing.T) {
	_, err := parseProbeDuration([]byte(`{"format":{}}`))
	assert.Error(t, err)

	_, err = parseProbeDuration([]byte(`not json`))
	assert.Error(t, err)
}

func TestAtempoArgs(t *testing.T) {
	e := NewFFmpegEngine()
	args := e.atempoArgs("in.mp3", "out.mp3", 0.85)
	assert.Contains(t, args, "atempo=0.850000")
	assert.Contains(t, args, "in.mp3")
	assert.Equal(t, "out.mp3", args[len(args)-1])
}

func TestSilenceArgs(t *testing.T) {
	e := NewFFmpegEngine()
	args := e.silenceArgs(2000, "out.mp3")
	assert.Contains(t, args, "2.000")
	assert.Contains(t, args, "anullsrc=r=44100:cl=stereo")
}

func TestConcatArgs(t *testing.T) {
	e := NewFFmpegEngine()
	args := e.concatArgs("list.txt", "out.mp3")
	assert.Equal(t, []string{"-y", "-f", "concat", "-safe", "0", "-i", "list.txt", "-c", "copy", "out.mp3"}, args)
}

func TestSilenceZeroLength(t *testing.T) {
	e := NewFFmpegEngine()
	data, err := e.Silence(t.Context(), 0)
	require.NoError(t, err)
	assert.Nil(t, data)
}
