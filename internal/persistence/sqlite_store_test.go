package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlate/voxlate/internal/jobs"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "voxlate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_JobRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	job := &jobs.DubJob{
		ID:        "job-1",
		Source:    "api",
		DedupeKey: "abc|pt|alloy",
		Payload: jobs.JobPayload{
			SRT:        "1\n00:00:00,000 --> 00:00:02,000\nHello.\n",
			SourceLang: "en",
			TargetLang: "pt",
			Voice:      "alloy",
		},
		Status:    jobs.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.UpsertJob(ctx, job))

	loaded, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, job.ID, loaded[0].ID)
	assert.Equal(t, job.Payload, loaded[0].Payload)
	assert.Equal(t, jobs.StatusPending, loaded[0].Status)

	// Upsert updates in place.
	job.Status = jobs.StatusSuccess
	job.Result = jobs.JobResult{BatchID: "b-1", TrackURL: "https://example.com/full.mp3"}
	require.NoError(t, store.UpsertJob(ctx, job))

	loaded, err = store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, jobs.StatusSuccess, loaded[0].Status)
	assert.Equal(t, "b-1", loaded[0].Result.BatchID)
}

func TestSQLiteStore_DeleteJob(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	now := time.Now().UTC()
	require.NoError(t, store.UpsertJob(ctx, &jobs.DubJob{
		ID: "job-1", Status: jobs.StatusFailed, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, store.DeleteJob(ctx, "job-1"))

	loaded, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSQLiteStore_BatchExpiry(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	now := time.Now().UTC()
	require.NoError(t, store.RecordBatch(ctx, "old-batch", now.Add(-80*time.Hour)))
	require.NoError(t, store.RecordBatch(ctx, "fresh-batch", now))
	// Re-recording an existing batch keeps the original timestamp.
	require.NoError(t, store.RecordBatch(ctx, "old-batch", now))

	expired, err := store.ExpiredBatches(ctx, now.Add(-72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"old-batch"}, expired)

	require.NoError(t, store.DeleteBatch(ctx, "old-batch"))
	expired, err = store.ExpiredBatches(ctx, now.Add(-72*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "voxlate.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, store.UpsertJob(ctx, &jobs.DubJob{
		ID: "job-7", Status: jobs.StatusRunning, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "job-7", loaded[0].ID)
}

func TestSQLiteStore_RequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("  ")
	assert.Error(t, err)
}
