package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueue_WorkerTransitionsStatus(t *testing.T) {
	q := NewQueue(1, nil)
	q.Start(func(_ context.Context, _ *TranslationJob) error { return nil })
	defer q.Stop()

	job, created := q.Enqueue(EnqueueRequest{
		Source:    "manual",
		DedupeKey: "doc-a",
		Payload:   JobPayload{InputFile: "/docs/a.txt"},
	})
	require.True(t, created)

	require.Eventually(t, func() bool {
		got, ok := q.Get(job.ID)
		return ok && got.Status == StatusSuccess
	}, time.Second, 10*time.Millisecond)
}

func TestQueue_FailedExecutorMarksJobFailed(t *testing.T) {
	q := NewQueue(1, nil)
	q.Start(func(_ context.Context, _ *TranslationJob) error {
		return errors.New("engine unavailable")
	})
	defer q.Stop()

	job, _ := q.Enqueue(EnqueueRequest{DedupeKey: "doc-b"})

	require.Eventually(t, func() bool {
		got, ok := q.Get(job.ID)
		return ok && got.Status == StatusFailed && got.Error == "engine unavailable"
	}, time.Second, 10*time.Millisecond)
}

func TestQueue_DedupeWhilePending(t *testing.T) {
	q := NewQueue(1, nil)

	first, created := q.Enqueue(EnqueueRequest{DedupeKey: "doc-c"})
	require.True(t, created)

	second, created := q.Enqueue(EnqueueRequest{DedupeKey: "doc-c"})
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)

	// A different key is a different job.
	third, created := q.Enqueue(EnqueueRequest{DedupeKey: "doc-d"})
	require.True(t, created)
	require.NotEqual(t, first.ID, third.ID)
}

func TestQueue_DedupeReleasedAfterCompletion(t *testing.T) {
	q := NewQueue(1, nil)
	q.Start(func(_ context.Context, _ *TranslationJob) error { return nil })
	defer q.Stop()

	first, _ := q.Enqueue(EnqueueRequest{DedupeKey: "doc-e"})
	require.Eventually(t, func() bool {
		got, ok := q.Get(first.ID)
		return ok && got.Status == StatusSuccess
	}, time.Second, 10*time.Millisecond)

	second, created := q.Enqueue(EnqueueRequest{DedupeKey: "doc-e"})
	require.True(t, created, "finished jobs do not block re-enqueue")
	require.NotEqual(t, first.ID, second.ID)
}

func TestQueue_StopCancelsInFlightRun(t *testing.T) {
	q := NewQueue(1, nil)

	running := make(chan struct{})
	q.Start(func(ctx context.Context, _ *TranslationJob) error {
		close(running)
		<-ctx.Done()
		return ctx.Err()
	})

	job, _ := q.Enqueue(EnqueueRequest{DedupeKey: "doc-stop"})

	select {
	case <-running:
	case <-time.After(time.Second):
		t.Fatal("executor never started")
	}

	done := make(chan struct{})
	go func() {
		q.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on the in-flight run")
	}

	got, ok := q.Get(job.ID)
	require.True(t, ok)
	require.Equal(t, StatusFailed, got.Status)
	require.Equal(t, context.Canceled.Error(), got.Error)
}

func TestQueue_OverflowEnqueuesDoNotLeakAfterStop(t *testing.T) {
	before := runtime.NumGoroutine()

	q := NewQueue(1, nil)
	q.Start(func(ctx context.Context, _ *TranslationJob) error {
		<-ctx.Done()
		return ctx.Err()
	})

	// Well past the pending buffer so the overflow path spawns
	// goroutines that must not outlive the queue.
	for i := 0; i < 1200; i++ {
		q.Enqueue(EnqueueRequest{DedupeKey: fmt.Sprintf("doc-%d", i)})
	}
	q.Stop()

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+5
	}, 2*time.Second, 20*time.Millisecond, "overflow senders must exit once the queue stops")
}

// memStore is an in-memory Store used to exercise hydration.
type memStore struct {
	mu   sync.Mutex
	jobs map[string]*TranslationJob
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[string]*TranslationJob)}
}

func (s *memStore) UpsertJob(_ context.Context, job *TranslationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

func (s *memStore) LoadJobs(_ context.Context) ([]*TranslationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*TranslationJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		clone := *job
		out = append(out, &clone)
	}
	return out, nil
}

func (s *memStore) DeleteJob(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

func TestQueue_HydratesAndRetriesInterruptedRuns(t *testing.T) {
	store := newMemStore()
	store.jobs["job-7"] = &TranslationJob{
		ID:        "job-7",
		DedupeKey: "doc-f",
		Status:    StatusRunning,
		Payload:   JobPayload{InputFile: "/docs/f.txt"},
	}

	q := NewQueue(1, store)

	got, ok := q.Get("job-7")
	require.True(t, ok)
	require.Equal(t, StatusPending, got.Status, "interrupted run comes back as pending")

	q.Start(func(_ context.Context, _ *TranslationJob) error { return nil })
	defer q.Stop()

	require.Eventually(t, func() bool {
		got, ok := q.Get("job-7")
		return ok && got.Status == StatusSuccess
	}, time.Second, 10*time.Millisecond)

	// New ids continue after the hydrated counter.
	job, _ := q.Enqueue(EnqueueRequest{DedupeKey: "doc-g"})
	require.Equal(t, "job-8", job.ID)
}
