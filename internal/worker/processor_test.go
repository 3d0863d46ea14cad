package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqride/clinical-summarizer/internal/domain"
	"github.com/hqride/clinical-summarizer/internal/store"
	"github.com/hqride/clinical-summarizer/internal/summarizer"
	"github.com/hqride/clinical-summarizer/internal/transcriber"
)

type fixture struct {
	worker  *Worker
	jobs    *store.MemoryJobStore
	results *store.MemoryResultStore
}

func newFixture(t *testing.T, summarize func(ctx context.Context, text string) (*domain.ClinicalSummary, error), transcribe func(ctx context.Context, audioRef string) (string, error)) *fixture {
	t.Helper()

	jobs := store.NewMemoryJobStore(24 * time.Hour)
	results := store.NewMemoryResultStore(24 * time.Hour)

	w := NewWorker(&Config{
		Logger:        slog.Default(),
		Jobs:          jobs,
		Results:       results,
		Summarizer:    &summarizer.StubProvider{SummarizeFunc: summarize},
		Transcriber:   &transcriber.StubTranscriber{TranscribeFunc: transcribe},
		Concurrency:   1,
		JobTimeout:    time.Minute,
		TaskDeadline:  5 * time.Minute,
		SweepSchedule: "@every 1m",
		WorkerID:      "test-worker",
	})

	return &fixture{worker: w, jobs: jobs, results: results}
}

func (f *fixture) createPending(t *testing.T, id, text, audioRef string) {
	t.Helper()
	require.NoError(t, f.jobs.Create(context.Background(), &domain.Job{
		ID:        id,
		Status:    domain.StatusPending,
		Text:      text,
		AudioRef:  audioRef,
		CreatedAt: time.Now().UTC(),
	}))
}

func TestProcessTask_TextJobCompletes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)
	f.createPending(t, "job-1", "patient reports chest pain for two days", "")

	require.NoError(t, f.worker.ProcessTask(ctx, "job-1"))

	job, err := f.jobs.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, job.Status)
	assert.Empty(t, job.Error)
	require.NotNil(t, job.CompletedAt)

	summary, err := f.results.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Contains(t, summary.NarrativeSummary, "patient reports chest pain")
}

func TestProcessTask_AudioJobTranscribesFirst(t *testing.T) {
	ctx := context.Background()

	var summarizedText string
	f := newFixture(t,
		func(_ context.Context, text string) (*domain.ClinicalSummary, error) {
			summarizedText = text
			return &domain.ClinicalSummary{NarrativeSummary: "summary of " + text}, nil
		},
		func(_ context.Context, audioRef string) (string, error) {
			assert.Equal(t, "s3://recordings/visit-17.wav", audioRef)
			return "transcribed visit notes", nil
		},
	)
	f.createPending(t, "job-1", "", "s3://recordings/visit-17.wav")

	require.NoError(t, f.worker.ProcessTask(ctx, "job-1"))

	assert.Equal(t, "transcribed visit notes", summarizedText)

	job, err := f.jobs.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, job.Status)
}

func TestProcessTask_ResultStoredBeforeCompletion(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t,
		func(_ context.Context, text string) (*domain.ClinicalSummary, error) {
			return &domain.ClinicalSummary{NarrativeSummary: "done"}, nil
		},
		nil,
	)
	f.createPending(t, "job-1", "note", "")

	require.NoError(t, f.worker.ProcessTask(ctx, "job-1"))

	// Once completed is observable, the result must be too.
	job, err := f.jobs.Get(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, job.Status)

	_, err = f.results.Get(ctx, "job-1")
	require.NoError(t, err)
}

func TestProcessTask_InferenceFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t,
		func(_ context.Context, _ string) (*domain.ClinicalSummary, error) {
			return nil, summarizer.NewError("openai", errors.New("model unavailable"))
		},
		nil,
	)
	f.createPending(t, "job-1", "note", "")

	require.NoError(t, f.worker.ProcessTask(ctx, "job-1"))

	job, err := f.jobs.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "model unavailable")
	require.NotNil(t, job.CompletedAt)

	_, err = f.results.Get(ctx, "job-1")
	assert.ErrorIs(t, err, domain.ErrJobNotFound, "failed jobs must not leave a result")
}

func TestProcessTask_TranscriptionFailure(t *testing.T) {
	ctx := context.Background()

	summarizerCalled := false
	f := newFixture(t,
		func(_ context.Context, _ string) (*domain.ClinicalSummary, error) {
			summarizerCalled = true
			return &domain.ClinicalSummary{}, nil
		},
		func(_ context.Context, _ string) (string, error) {
			return "", transcriber.NewError("whisper", errors.New("unreadable audio"))
		},
	)
	f.createPending(t, "job-1", "", "s3://recordings/bad.wav")

	require.NoError(t, f.worker.ProcessTask(ctx, "job-1"))

	job, err := f.jobs.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "unreadable audio")
	assert.False(t, summarizerCalled, "summarizer must not run after transcription fails")
}

func TestProcessTask_PanicMarksJobFailed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t,
		func(_ context.Context, _ string) (*domain.ClinicalSummary, error) {
			panic("summarizer blew up")
		},
		nil,
	)
	f.createPending(t, "job-1", "note", "")

	require.NoError(t, f.worker.ProcessTask(ctx, "job-1"))

	job, err := f.jobs.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "panic")
}

func TestProcessTask_UnknownJobDropped(t *testing.T) {
	f := newFixture(t, nil, nil)

	// Expired or never-created jobs are dropped without error so the
	// delivery gets acked instead of redelivered forever.
	require.NoError(t, f.worker.ProcessTask(context.Background(), "missing-id"))
}

func TestProcessTask_TerminalJobNotReprocessed(t *testing.T) {
	ctx := context.Background()

	summarizeCalls := 0
	f := newFixture(t,
		func(_ context.Context, _ string) (*domain.ClinicalSummary, error) {
			summarizeCalls++
			return &domain.ClinicalSummary{NarrativeSummary: "done"}, nil
		},
		nil,
	)
	f.createPending(t, "job-1", "note", "")

	require.NoError(t, f.worker.ProcessTask(ctx, "job-1"))
	require.Equal(t, 1, summarizeCalls)

	// A redelivered task for a terminal job is dropped at the claim step.
	require.NoError(t, f.worker.ProcessTask(ctx, "job-1"))
	assert.Equal(t, 1, summarizeCalls)

	job, err := f.jobs.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, job.Status)
}

func TestProcessTask_ConcurrentWorkersProcessOnce(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	processedBy := make(map[string]int)

	f := newFixture(t,
		func(_ context.Context, text string) (*domain.ClinicalSummary, error) {
			mu.Lock()
			processedBy[text]++
			mu.Unlock()
			return &domain.ClinicalSummary{NarrativeSummary: text}, nil
		},
		nil,
	)

	jobIDs := []string{"job-1", "job-2", "job-3", "job-4", "job-5"}
	for _, id := range jobIDs {
		f.createPending(t, id, id, "")
	}

	// Several workers race on every job; the claim transition must let
	// exactly one of them run it.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, id := range jobIDs {
				assert.NoError(t, f.worker.ProcessTask(ctx, id))
			}
		}()
	}
	wg.Wait()

	for _, id := range jobIDs {
		assert.Equal(t, 1, processedBy[id], "job %s must be processed exactly once", id)

		job, err := f.jobs.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, job.Status)
	}
}

type recordingArchiver struct {
	mu   sync.Mutex
	jobs []domain.Job
	fail error
}

func (a *recordingArchiver) Archive(_ context.Context, job domain.Job) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail != nil {
		return a.fail
	}
	a.jobs = append(a.jobs, job)
	return nil
}

func TestProcessTask_ArchivesTerminalJobs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)

	arch := &recordingArchiver{}
	f.worker.archive = arch

	f.createPending(t, "job-1", "note", "")
	require.NoError(t, f.worker.ProcessTask(ctx, "job-1"))

	require.Len(t, arch.jobs, 1)
	assert.Equal(t, "job-1", arch.jobs[0].ID)
	assert.Equal(t, domain.StatusCompleted, arch.jobs[0].Status)
}

func TestProcessTask_ArchiveFailureDoesNotAffectJob(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)

	f.worker.archive = &recordingArchiver{fail: errors.New("archive db down")}

	f.createPending(t, "job-1", "note", "")
	require.NoError(t, f.worker.ProcessTask(ctx, "job-1"))

	job, err := f.jobs.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, job.Status)
}
