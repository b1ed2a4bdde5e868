package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu   sync.Mutex
	rows map[string]*DubJob
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]*DubJob)}
}

func (s *fakeStore) LoadJobs(_ context.Context) ([]*DubJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]*DubJob, 0, len(s.rows))
	for _, job := range s.rows {
		tmp := *job
		ret = append(ret, &tmp)
	}
	return ret, nil
}

func (s *fakeStore) UpsertJob(_ context.Context, job *DubJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := *job
	s.rows[job.ID] = &tmp
	return nil
}

func (s *fakeStore) DeleteJob(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, jobID)
	return nil
}

func TestQueue_HydrateResetsRunningToPending(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.UpsertJob(context.Background(), &DubJob{
		ID:        "job-3",
		DedupeKey: "interrupted",
		Status:    StatusRunning,
		Payload:   JobPayload{TargetLang: "fr"},
	}))

	q := NewQueue(1, store)

	job, ok := q.Get("job-3")
	require.True(t, ok)
	assert.Equal(t, StatusPending, job.Status)

	// The id counter continues past recovered ids.
	fresh, created := q.Enqueue(EnqueueRequest{Source: "api", DedupeKey: "new"})
	require.True(t, created)
	assert.Equal(t, "job-4", fresh.ID)
}

func TestQueue_HydratedPendingJobRunsOnStart(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.UpsertJob(context.Background(), &DubJob{
		ID:        "job-1",
		DedupeKey: "recovered",
		Status:    StatusPending,
	}))

	q := NewQueue(1, store)
	q.Start(func(_ context.Context, _ *DubJob) (JobResult, error) {
		return JobResult{BatchID: "recovered-batch"}, nil
	})
	defer q.Stop()

	require.Eventually(t, func() bool {
		got, ok := q.Get("job-1")
		return ok && got.Status == StatusSuccess
	}, time.Second, 10*time.Millisecond)

	got, _ := q.Get("job-1")
	assert.Equal(t, "recovered-batch", got.Result.BatchID)
}

func TestQueue_PersistsStatusTransitions(t *testing.T) {
	store := newFakeStore()
	q := NewQueue(1, store)
	q.Start(func(_ context.Context, _ *DubJob) (JobResult, error) {
		return JobResult{TrackURL: "u"}, nil
	})
	defer q.Stop()

	job, created := q.Enqueue(EnqueueRequest{Source: "api", DedupeKey: "persist"})
	require.True(t, created)

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		row, ok := store.rows[job.ID]
		return ok && row.Status == StatusSuccess && row.Result.TrackURL == "u"
	}, time.Second, 10*time.Millisecond)
}
