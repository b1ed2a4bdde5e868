package narration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voxlate/voxlate/internal/optimizer"
	"github.com/voxlate/voxlate/internal/storage"
	"github.com/voxlate/voxlate/internal/subtitle"
	"github.com/voxlate/voxlate/pkg/log"
)

// trackPresignTTL is how long the returned track URL stays valid.
const trackPresignTTL = time.Hour

// Assemble walks the units in order with a millisecond cursor, pads
// with generated silence whenever the next unit starts after the
// cursor, prefers the tempo-corrected variant of each segment when one
// exists, and advances the cursor by the real measured duration of the
// audio placed. The joined track is stored under the batch's track key
// and returned as a presigned URL.
//
// Units with unresolvable entry references or unreadable audio are
// skipped with the cursor unchanged; timing degrades locally but the
// assembly never fails because of one unit.
func (nr *Narrator) Assemble(
	ctx context.Context,
	entries []subtitle.Entry,
	units []optimizer.Unit,
	batchID string,
) (string, error) {
	log.Info("Assembling track for batch %s: %d units", batchID, len(units))

	entryMap := subtitle.EntryMap(entries)

	var segments [][]byte
	cursorMS := 0

	for i, unit := range units {
		if len(unit.SrtEntries) == 0 {
			log.Warn("Unit %d has no srt entries, skipping", i)
			continue
		}

		first, ok := entryMap[unit.SrtEntries[0]]
		if !ok {
			log.Warn("Unit %d references missing SRT entry %d, skipping", i, unit.SrtEntries[0])
			continue
		}

		audio, err := nr.fetchSegment(ctx, batchID, i)
		if err != nil {
			log.Warn("Failed to fetch audio for unit %d: %v", i, err)
			continue
		}

		if gap := first.StartMS - cursorMS; gap > 0 {
			silence, err := nr.engine.Silence(ctx, gap)
			if err != nil {
				return "", fmt.Errorf("failed to generate %dms silence before unit %d: %w", gap, i, err)
			}
			segments = append(segments, silence)
			cursorMS += gap
			log.Debug("Inserted %dms silence before unit %d", gap, i)
		}

		duration, err := nr.engine.Duration(ctx, audio)
		if err != nil {
			log.Warn("Failed to measure audio for unit %d: %v", i, err)
			continue
		}

		segments = append(segments, audio)
		cursorMS += subtitle.SecondsToMS(duration)
	}

	if len(segments) == 0 {
		return "", fmt.Errorf("no audio segments available for batch %s", batchID)
	}

	track, err := nr.engine.Concat(ctx, segments)
	if err != nil {
		return "", fmt.Errorf("failed to join %d segments: %w", len(segments), err)
	}

	key := storage.TrackKey(nr.keyPrefix, batchID)
	if err := nr.store.Put(ctx, key, track, storage.AudioContentType); err != nil {
		return "", fmt.Errorf("failed to store track: %w", err)
	}

	url, err := nr.store.Presign(ctx, key, trackPresignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to presign track: %w", err)
	}

	log.Info("Assembled track for batch %s: %d segments, %.1fs -> %s",
		batchID, len(segments), float64(cursorMS)/1000.0, key)
	return url, nil
}

// fetchSegment returns the corrected variant of a unit's audio when
// one exists, falling back to the original synthesis.
func (nr *Narrator) fetchSegment(ctx context.Context, batchID string, index int) ([]byte, error) {
	data, err := nr.store.Get(ctx, storage.AdjustedKey(nr.keyPrefix, batchID, index))
	if err == nil {
		log.Debug("Using adjusted audio for unit %d", index)
		return data, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	return nr.store.Get(ctx, storage.SegmentKey(nr.keyPrefix, batchID, index))
}
