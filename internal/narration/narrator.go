// Package narration runs the unit-level audio loop: synthesize each
// optimized unit, measure how far the audio drifts from its subtitle
// slot, apply bounded tempo correction to the worst offenders, and
// assemble the final track anchored to cue start times.
package narration

import (
	"github.com/voxlate/voxlate/internal/audio"
	"github.com/voxlate/voxlate/internal/storage"
	"github.com/voxlate/voxlate/internal/tts"
)

// DefaultMaxWorkers bounds the parallel synthesis and correction
// phases when no explicit limit is configured.
const DefaultMaxWorkers = 5

// DefaultKeyPrefix is the storage key prefix for batch artifacts.
const DefaultKeyPrefix = "tts"

// Narrator holds the explicitly injected collaborators shared by the
// narration stages.
type Narrator struct {
	store      storage.Store
	engine     audio.Engine
	synth      tts.Synthesizer
	keyPrefix  string
	maxWorkers int
}

// Option configures a Narrator.
type Option func(*Narrator)

// WithMaxWorkers overrides the worker bound for the parallel phases.
func WithMaxWorkers(n int) Option {
	return func(nr *Narrator) {
		if n > 0 {
			nr.maxWorkers = n
		}
	}
}

// WithKeyPrefix overrides the storage key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(nr *Narrator) {
		if prefix != "" {
			nr.keyPrefix = prefix
		}
	}
}

// New builds a Narrator from its dependencies.
func New(store storage.Store, engine audio.Engine, synth tts.Synthesizer, opts ...Option) *Narrator {
	n := &Narrator{
		store:      store,
		engine:     engine,
		synth:      synth,
		keyPrefix:  DefaultKeyPrefix,
		maxWorkers: DefaultMaxWorkers,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// workerCount sizes a bounded pool for n items.
func (nr *Narrator) workerCount(items int) int {
	if items < nr.maxWorkers {
		return items
	}
	return nr.maxWorkers
}
