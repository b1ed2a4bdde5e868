package narration

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/voxlate/voxlate/internal/optimizer"
	"github.com/voxlate/voxlate/internal/storage"
	"github.com/voxlate/voxlate/internal/subtitle"
	"github.com/voxlate/voxlate/pkg/log"
)

const (
	// minAdjustGapSeconds: deviations with a smaller absolute gap are
	// left alone regardless of their percentage.
	minAdjustGapSeconds = 1.0
	// minAdjustPercent: deviations below this share of the slot are
	// left alone regardless of the gap.
	minAdjustPercent = 4.0
	// maxTempoOffset bounds the tempo factor to [0.85, 1.15].
	maxTempoOffset = 0.15
)

// AdjustmentDecision is a unit picked for correction and the tempo
// factor to apply.
type AdjustmentDecision struct {
	UnitIndex int     `json:"unit_index"`
	Factor    float64 `json:"factor"`
}

// needsAdjustment applies both thresholds: only egregious deviations
// get corrected.
func needsAdjustment(e ValidationEntry) bool {
	return math.Abs(e.Gap) > minAdjustGapSeconds && math.Abs(e.PercentageDeviation) > minAdjustPercent
}

// tempoFactor converts a signed percentage deviation into a clamped
// tempo factor. The deviation is (srt-audio)/srt, so audio running
// long yields a negative deviation and a factor above 1, speeding the
// segment up; audio running short slows it down.
func tempoFactor(percentageDeviation float64) float64 {
	factor := 1.0 - percentageDeviation/100.0
	if factor < 1.0-maxTempoOffset {
		return 1.0 - maxTempoOffset
	}
	if factor > 1.0+maxTempoOffset {
		return 1.0 + maxTempoOffset
	}
	return factor
}

// Adjust validates the batch, picks units whose deviation exceeds both
// thresholds, and applies tempo correction on a bounded worker pool.
// Each correction failure is isolated to its unit: it is logged, the
// unit stays uncorrected, and the batch continues.
func (nr *Narrator) Adjust(
	ctx context.Context,
	entries []subtitle.Entry,
	units []optimizer.Unit,
	batchID string,
) ([]int, error) {
	report := nr.Validate(ctx, entries, units, batchID)

	var decisions []AdjustmentDecision
	for _, e := range report.Entries {
		if !needsAdjustment(e) {
			log.Debug("Unit %d within tolerance (gap=%.2fs dev=%.1f%%)", e.UnitIndex, e.Gap, e.PercentageDeviation)
			continue
		}
		decisions = append(decisions, AdjustmentDecision{
			UnitIndex: e.UnitIndex,
			Factor:    tempoFactor(e.PercentageDeviation),
		})
	}

	if len(decisions) == 0 {
		log.Info("No units require adjustment for batch %s", batchID)
		return nil, nil
	}

	workers := nr.workerCount(len(decisions))
	log.Info("Adjusting %d units for batch %s with %d workers", len(decisions), batchID, workers)

	// Pre-sized results keyed by decision position keep the output
	// order independent of completion order.
	succeeded := make([]bool, len(decisions))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, d := range decisions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := nr.adjustUnit(ctx, batchID, d); err != nil {
				log.Error("Failed to adjust unit %d: %v", d.UnitIndex, err)
				return
			}
			succeeded[i] = true
		}()
	}
	wg.Wait()

	var adjusted []int
	for i, ok := range succeeded {
		if ok {
			adjusted = append(adjusted, decisions[i].UnitIndex)
		}
	}

	log.Info("Adjustment complete for batch %s: corrected %d of %d candidates", batchID, len(adjusted), len(decisions))
	return adjusted, nil
}

// adjustUnit downloads the original segment, applies the tempo factor
// and stores the corrected variant under its own key.
func (nr *Narrator) adjustUnit(ctx context.Context, batchID string, d AdjustmentDecision) error {
	original, err := nr.store.Get(ctx, storage.SegmentKey(nr.keyPrefix, batchID, d.UnitIndex))
	if err != nil {
		return fmt.Errorf("download original: %w", err)
	}

	log.Info("Applying tempo factor %.3f to unit %d", d.Factor, d.UnitIndex)
	stretched, err := nr.engine.TimeStretch(ctx, original, d.Factor)
	if err != nil {
		return fmt.Errorf("time-stretch: %w", err)
	}

	key := storage.AdjustedKey(nr.keyPrefix, batchID, d.UnitIndex)
	if err := nr.store.Put(ctx, key, stretched, storage.AudioContentType); err != nil {
		return fmt.Errorf("upload adjusted: %w", err)
	}
	return nil
}
