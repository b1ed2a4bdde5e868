package narration

import (
	"context"
	"math"

	"github.com/voxlate/voxlate/internal/optimizer"
	"github.com/voxlate/voxlate/internal/storage"
	"github.com/voxlate/voxlate/internal/subtitle"
	"github.com/voxlate/voxlate/pkg/log"
)

// ValidationEntry compares one unit's subtitle time span against its
// measured audio duration. Times are seconds; the deviation is the gap
// as a signed percentage of the subtitle span.
type ValidationEntry struct {
	UnitIndex           int     `json:"unit_index"`
	SrtEntries          []int   `json:"srt_entries"`
	SrtTime             float64 `json:"srt_time"`
	AudioTime           float64 `json:"audio_time"`
	Gap                 float64 `json:"gap"`
	PercentageDeviation float64 `json:"percentage_deviation"`
}

// ValidationReport aggregates per-unit deviations for a batch.
type ValidationReport struct {
	Entries                  []ValidationEntry `json:"validation_entries"`
	AverageAbsoluteDeviation float64           `json:"average_percentage_deviation"`
	AverageSignedDeviation   float64           `json:"average_real_percentage_deviation"`
}

// Validate measures each unit's audio against the subtitle timeline.
// Units with unresolvable entry references or unreadable audio are
// logged and excluded from the report; they never fail the batch.
func (nr *Narrator) Validate(
	ctx context.Context,
	entries []subtitle.Entry,
	units []optimizer.Unit,
	batchID string,
) ValidationReport {
	log.Info("Validating narration sync for batch %s: %d units", batchID, len(units))

	entryMap := subtitle.EntryMap(entries)

	var report ValidationReport
	var totalAbs, totalSigned float64

	for i, unit := range units {
		if len(unit.SrtEntries) == 0 {
			log.Warn("Unit %d has no srt entries, skipping", i)
			continue
		}

		firstIdx := unit.SrtEntries[0]
		lastIdx := unit.SrtEntries[len(unit.SrtEntries)-1]

		first, okFirst := entryMap[firstIdx]
		last, okLast := entryMap[lastIdx]
		if !okFirst || !okLast {
			log.Warn("Unit %d references missing SRT entries %d or %d, skipping", i, firstIdx, lastIdx)
			continue
		}

		srtTime := float64(last.EndMS-first.StartMS) / 1000.0

		audioTime, err := nr.measureUnit(ctx, batchID, i)
		if err != nil {
			log.Warn("Failed to measure audio for unit %d: %v", i, err)
			continue
		}

		gap := srtTime - audioTime
		deviation := 0.0
		if srtTime > 0 {
			deviation = gap / srtTime * 100.0
		}

		log.Debug("Unit %d: srt=%.2fs audio=%.2fs gap=%.2fs dev=%.1f%%",
			i, srtTime, audioTime, gap, deviation)

		report.Entries = append(report.Entries, ValidationEntry{
			UnitIndex:           i,
			SrtEntries:          unit.SrtEntries,
			SrtTime:             srtTime,
			AudioTime:           audioTime,
			Gap:                 gap,
			PercentageDeviation: deviation,
		})
		totalAbs += math.Abs(deviation)
		totalSigned += deviation
	}

	if n := len(report.Entries); n > 0 {
		report.AverageAbsoluteDeviation = totalAbs / float64(n)
		report.AverageSignedDeviation = totalSigned / float64(n)
	}

	log.Info("Validation complete for batch %s: %d valid entries, avg |dev|=%.2f%%, avg dev=%.2f%%",
		batchID, len(report.Entries), report.AverageAbsoluteDeviation, report.AverageSignedDeviation)

	return report
}

// measureUnit downloads a unit's stored audio and measures its real
// duration.
func (nr *Narrator) measureUnit(ctx context.Context, batchID string, index int) (float64, error) {
	data, err := nr.store.Get(ctx, storage.SegmentKey(nr.keyPrefix, batchID, index))
	if err != nil {
		return 0, err
	}
	return nr.engine.Duration(ctx, data)
}
