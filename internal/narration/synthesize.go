package narration

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/voxlate/voxlate/internal/optimizer"
	"github.com/voxlate/voxlate/internal/storage"
	"github.com/voxlate/voxlate/pkg/log"
)

// Synthesize generates audio for every unit on a bounded worker pool
// and stores each segment under its index key. Results land in a
// pre-sized slice by unit index, so output order never depends on
// completion order. Any failure aborts the batch: downstream stages
// require a complete, index-dense unit set.
func (nr *Narrator) Synthesize(
	ctx context.Context,
	batchID string,
	units []optimizer.Unit,
	voice string,
	model string,
) ([]string, error) {
	if len(units) == 0 {
		return nil, fmt.Errorf("no units to synthesize")
	}

	workers := nr.workerCount(len(units))
	log.Info("Synthesizing %d units for batch %s with %d workers", len(units), batchID, workers)

	keys := make([]string, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, unit := range units {
		g.Go(func() error {
			audio, err := nr.synth.Synthesize(gctx, unit.Text, voice, model)
			if err != nil {
				return fmt.Errorf("failed to synthesize unit %d: %w", i, err)
			}

			key := storage.SegmentKey(nr.keyPrefix, batchID, i)
			if err := nr.store.Put(gctx, key, audio, storage.AudioContentType); err != nil {
				return fmt.Errorf("failed to store unit %d audio: %w", i, err)
			}

			keys[i] = key
			log.Debug("Synthesized unit %d (%d bytes) -> %s", i, len(audio), key)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("Synthesis complete for batch %s: %d segments", batchID, len(keys))
	return keys, nil
}
