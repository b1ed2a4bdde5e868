package narration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlate/voxlate/internal/optimizer"
	"github.com/voxlate/voxlate/internal/storage"
	"github.com/voxlate/voxlate/internal/subtitle"
)

type fakeSynth struct {
	mu       sync.Mutex
	calls    []string
	failText string
}

func (s *fakeSynth) Synthesize(ctx context.Context, text, voice, model string) ([]byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, text)
	s.mu.Unlock()
	if s.failText != "" && text == s.failText {
		return nil, errors.New("synthesis failed")
	}
	return []byte("audio:" + text), nil
}

// fakeEngine reports durations keyed by payload and records the
// operations applied to it. Safe for the concurrent phases.
type fakeEngine struct {
	mu        sync.Mutex
	durations map[string]float64
	stretched []float64
	silences  []int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{durations: make(map[string]float64)}
}

func (e *fakeEngine) setDuration(data []byte, seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.durations[string(data)] = seconds
}

func (e *fakeEngine) Duration(ctx context.Context, data []byte) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.durations[string(data)]
	if !ok {
		return 0, fmt.Errorf("unknown payload")
	}
	return d, nil
}

func (e *fakeEngine) Silence(ctx context.Context, ms int) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.silences = append(e.silences, ms)
	data := []byte(fmt.Sprintf("silence-%dms", ms))
	e.durations[string(data)] = float64(ms) / 1000.0
	return data, nil
}

func (e *fakeEngine) TimeStretch(ctx context.Context, data []byte, factor float64) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stretched = append(e.stretched, factor)
	out := append([]byte("stretched:"), data...)
	e.durations[string(out)] = e.durations[string(data)] / factor
	return out, nil
}

func (e *fakeEngine) Concat(ctx context.Context, segments [][]byte) ([]byte, error) {
	return bytes.Join(segments, []byte("|")), nil
}

func testNarrator(store storage.Store, engine *fakeEngine, synth *fakeSynth) *Narrator {
	return New(store, engine, synth)
}

func TestSynthesizeStoresSegmentsInOrder(t *testing.T) {
	store := storage.NewMemoryStore()
	nr := testNarrator(store, newFakeEngine(), &fakeSynth{})

	units := []optimizer.Unit{
		{Text: "First sentence.", SrtEntries: []int{1}},
		{Text: "Second sentence.", SrtEntries: []int{2}},
		{Text: "Third sentence.", SrtEntries: []int{3}},
	}

	keys, err := nr.Synthesize(context.Background(), "batch-1", units, "alloy", "")
	require.NoError(t, err)
	require.Len(t, keys, 3)

	assert.Equal(t, "tts/batch-1/000.mp3", keys[0])
	assert.Equal(t, "tts/batch-1/002.mp3", keys[2])

	data, err := store.Get(context.Background(), keys[1])
	require.NoError(t, err)
	assert.Equal(t, []byte("audio:Second sentence."), data)
}

func TestSynthesizeAbortsOnFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	nr := testNarrator(store, newFakeEngine(), &fakeSynth{failText: "Bad unit."})

	units := []optimizer.Unit{
		{Text: "Good unit.", SrtEntries: []int{1}},
		{Text: "Bad unit.", SrtEntries: []int{2}},
	}

	_, err := nr.Synthesize(context.Background(), "batch-1", units, "alloy", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unit 1")
}

func TestSynthesizeEmptyUnits(t *testing.T) {
	nr := testNarrator(storage.NewMemoryStore(), newFakeEngine(), &fakeSynth{})
	_, err := nr.Synthesize(context.Background(), "batch-1", nil, "alloy", "")
	assert.Error(t, err)
}

func TestTempoFactorClamping(t *testing.T) {
	// 20% deviation asks for 0.8, clamped to the slowdown floor.
	assert.InDelta(t, 0.85, tempoFactor(20.0), 1e-9)
	// -50% deviation asks for 1.5, clamped to the speedup ceiling.
	assert.InDelta(t, 1.15, tempoFactor(-50.0), 1e-9)
	// Within bounds passes through.
	assert.InDelta(t, 0.95, tempoFactor(5.0), 1e-9)
	assert.InDelta(t, 1.10, tempoFactor(-10.0), 1e-9)
}

func TestNeedsAdjustmentRequiresBothThresholds(t *testing.T) {
	// Large percentage but sub-second gap: leave alone.
	assert.False(t, needsAdjustment(ValidationEntry{Gap: 0.5, PercentageDeviation: 25.0}))
	// Large gap but small percentage: leave alone.
	assert.False(t, needsAdjustment(ValidationEntry{Gap: 1.5, PercentageDeviation: 3.0}))
	// Both exceeded: correct.
	assert.True(t, needsAdjustment(ValidationEntry{Gap: 1.5, PercentageDeviation: 8.0}))
	assert.True(t, needsAdjustment(ValidationEntry{Gap: -2.0, PercentageDeviation: -10.0}))
	// Exactly at a threshold does not trigger.
	assert.False(t, needsAdjustment(ValidationEntry{Gap: 1.0, PercentageDeviation: 10.0}))
}

func TestValidateMeasuresDeviation(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	engine := newFakeEngine()
	nr := testNarrator(store, engine, &fakeSynth{})

	entries := []subtitle.Entry{
		{Index: 1, StartMS: 0, EndMS: 4000, Text: "Hello."},
		{Index: 2, StartMS: 4500, EndMS: 10000, Text: "World."},
	}
	units := []optimizer.Unit{
		{Text: "Hello.", SrtEntries: []int{1}},
		{Text: "World.", SrtEntries: []int{2}},
	}

	audio0 := []byte("unit-0")
	audio1 := []byte("unit-1")
	require.NoError(t, store.Put(ctx, storage.SegmentKey("tts", "b", 0), audio0, storage.AudioContentType))
	require.NoError(t, store.Put(ctx, storage.SegmentKey("tts", "b", 1), audio1, storage.AudioContentType))
	engine.setDuration(audio0, 3.0) // slot is 4.0s -> gap 1.0s, dev 25%
	engine.setDuration(audio1, 5.5) // slot is 5.5s -> exact

	report := nr.Validate(ctx, entries, units, "b")
	require.Len(t, report.Entries, 2)

	first := report.Entries[0]
	assert.Equal(t, 0, first.UnitIndex)
	assert.InDelta(t, 4.0, first.SrtTime, 1e-9)
	assert.InDelta(t, 3.0, first.AudioTime, 1e-9)
	assert.InDelta(t, 1.0, first.Gap, 1e-9)
	assert.InDelta(t, 25.0, first.PercentageDeviation, 1e-9)

	assert.InDelta(t, 0.0, report.Entries[1].PercentageDeviation, 1e-9)
	assert.InDelta(t, 12.5, report.AverageAbsoluteDeviation, 1e-9)
	assert.InDelta(t, 12.5, report.AverageSignedDeviation, 1e-9)
}

func TestValidateSkipsBrokenUnits(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	engine := newFakeEngine()
	nr := testNarrator(store, engine, &fakeSynth{})

	entries := []subtitle.Entry{
		{Index: 1, StartMS: 0, EndMS: 2000, Text: "Only."},
	}
	units := []optimizer.Unit{
		{Text: "No refs.", SrtEntries: nil},
		{Text: "Missing entry.", SrtEntries: []int{99}},
		{Text: "No audio.", SrtEntries: []int{1}},
	}

	report := nr.Validate(ctx, entries, units, "b")
	assert.Empty(t, report.Entries)
	assert.Zero(t, report.AverageAbsoluteDeviation)
}

func TestAdjustCorrectsOnlyEgregiousUnits(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	engine := newFakeEngine()
	nr := testNarrator(store, engine, &fakeSynth{})

	entries := []subtitle.Entry{
		{Index: 1, StartMS: 0, EndMS: 10000, Text: "Long slot."},
		{Index: 2, StartMS: 10000, EndMS: 14000, Text: "Fine."},
	}
	units := []optimizer.Unit{
		{Text: "Long slot.", SrtEntries: []int{1}},
		{Text: "Fine.", SrtEntries: []int{2}},
	}

	slow := []byte("runs-long")
	fine := []byte("on-time")
	require.NoError(t, store.Put(ctx, storage.SegmentKey("tts", "b", 0), slow, storage.AudioContentType))
	require.NoError(t, store.Put(ctx, storage.SegmentKey("tts", "b", 1), fine, storage.AudioContentType))
	engine.setDuration(slow, 12.0) // gap -2.0s, dev -20% -> factor 1.15
	engine.setDuration(fine, 3.9)  // gap 0.1s -> untouched

	adjusted, err := nr.Adjust(ctx, entries, units, "b")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, adjusted)

	require.Len(t, engine.stretched, 1)
	assert.InDelta(t, 1.15, engine.stretched[0], 1e-9)

	corrected, err := store.Get(ctx, storage.AdjustedKey("tts", "b", 0))
	require.NoError(t, err)
	assert.Equal(t, []byte("stretched:runs-long"), corrected)

	_, err = store.Get(ctx, storage.AdjustedKey("tts", "b", 1))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAdjustNothingToDo(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	engine := newFakeEngine()
	nr := testNarrator(store, engine, &fakeSynth{})

	entries := []subtitle.Entry{{Index: 1, StartMS: 0, EndMS: 4000, Text: "Hi."}}
	units := []optimizer.Unit{{Text: "Hi.", SrtEntries: []int{1}}}

	audio := []byte("close-enough")
	require.NoError(t, store.Put(ctx, storage.SegmentKey("tts", "b", 0), audio, storage.AudioContentType))
	engine.setDuration(audio, 3.5)

	adjusted, err := nr.Adjust(ctx, entries, units, "b")
	require.NoError(t, err)
	assert.Empty(t, adjusted)
	assert.Empty(t, engine.stretched)
}

func TestAssembleInsertsSilenceForGaps(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	engine := newFakeEngine()
	nr := testNarrator(store, engine, &fakeSynth{})

	entries := []subtitle.Entry{
		{Index: 1, StartMS: 0, EndMS: 3000, Text: "One."},
		{Index: 2, StartMS: 5000, EndMS: 8000, Text: "Two."},
	}
	units := []optimizer.Unit{
		{Text: "One.", SrtEntries: []int{1}},
		{Text: "Two.", SrtEntries: []int{2}},
	}

	a0 := []byte("seg-0")
	a1 := []byte("seg-1")
	require.NoError(t, store.Put(ctx, storage.SegmentKey("tts", "b", 0), a0, storage.AudioContentType))
	require.NoError(t, store.Put(ctx, storage.SegmentKey("tts", "b", 1), a1, storage.AudioContentType))
	// First unit ends its audio at 3.0s; second unit starts at 5.0s, so
	// 2000ms of silence must be generated in between.
	engine.setDuration(a0, 3.0)
	engine.setDuration(a1, 3.0)

	url, err := nr.Assemble(ctx, entries, units, "b")
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	assert.Equal(t, []int{2000}, engine.silences)

	track, err := store.Get(ctx, storage.TrackKey("tts", "b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("seg-0|silence-2000ms|seg-1"), track)
}

func TestAssemblePrefersAdjustedAudio(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	engine := newFakeEngine()
	nr := testNarrator(store, engine, &fakeSynth{})

	entries := []subtitle.Entry{{Index: 1, StartMS: 0, EndMS: 4000, Text: "One."}}
	units := []optimizer.Unit{{Text: "One.", SrtEntries: []int{1}}}

	original := []byte("original")
	corrected := []byte("corrected")
	require.NoError(t, store.Put(ctx, storage.SegmentKey("tts", "b", 0), original, storage.AudioContentType))
	require.NoError(t, store.Put(ctx, storage.AdjustedKey("tts", "b", 0), corrected, storage.AudioContentType))
	engine.setDuration(corrected, 4.0)

	_, err := nr.Assemble(ctx, entries, units, "b")
	require.NoError(t, err)

	track, err := store.Get(ctx, storage.TrackKey("tts", "b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("corrected"), track)
}

func TestAssembleSkipsBrokenUnitsWithoutMovingCursor(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	engine := newFakeEngine()
	nr := testNarrator(store, engine, &fakeSynth{})

	entries := []subtitle.Entry{
		{Index: 1, StartMS: 0, EndMS: 2000, Text: "One."},
		{Index: 2, StartMS: 2000, EndMS: 4000, Text: "Two."},
	}
	units := []optimizer.Unit{
		{Text: "One.", SrtEntries: []int{1}}, // no audio stored
		{Text: "Two.", SrtEntries: []int{2}},
	}

	a1 := []byte("seg-1")
	require.NoError(t, store.Put(ctx, storage.SegmentKey("tts", "b", 1), a1, storage.AudioContentType))
	engine.setDuration(a1, 2.0)

	_, err := nr.Assemble(ctx, entries, units, "b")
	require.NoError(t, err)

	// The surviving unit starts at 2000ms with the cursor still at 0,
	// so it gets padded to its slot.
	assert.Equal(t, []int{2000}, engine.silences)
}

func TestAssembleNoSegments(t *testing.T) {
	nr := testNarrator(storage.NewMemoryStore(), newFakeEngine(), &fakeSynth{})
	_, err := nr.Assemble(context.Background(), nil, []optimizer.Unit{{Text: "x", SrtEntries: []int{1}}}, "b")
	assert.Error(t, err)
}
