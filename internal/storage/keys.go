package storage

import "fmt"

// AudioContentType is the content type for all stored audio artifacts.
const AudioContentType = "audio/mpeg"

// SegmentKey is the storage key of a unit's original synthesized audio.
func SegmentKey(prefix, batchID string, index int) string {
	return fmt.Sprintf("%s/%s/%03d.mp3", prefix, batchID, index)
}

// AdjustedKey is the storage key of a unit's tempo-corrected audio.
func AdjustedKey(prefix, batchID string, index int) string {
	return fmt.Sprintf("%s/%s/%03d-adjusted.mp3", prefix, batchID, index)
}

// TrackKey is the storage key of the assembled full track.
func TrackKey(prefix, batchID string) string {
	return fmt.Sprintf("%s/%s/full.mp3", prefix, batchID)
}

// BatchPrefix is the common key prefix of every artifact in a batch.
func BatchPrefix(prefix, batchID string) string {
	return fmt.Sprintf("%s/%s/", prefix, batchID)
}
