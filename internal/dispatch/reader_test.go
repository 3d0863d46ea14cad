package dispatch

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqride/clinical-summarizer/internal/domain"
	"github.com/hqride/clinical-summarizer/internal/store"
)

func seededReader(t *testing.T, job *domain.Job) (*Reader, *store.MemoryResultStore) {
	t.Helper()
	jobs := store.NewMemoryJobStore(24 * time.Hour)
	results := store.NewMemoryResultStore(24 * time.Hour)
	if job != nil {
		require.NoError(t, jobs.Create(context.Background(), job))
	}
	return NewReader(jobs, results, slog.Default()), results
}

func TestReader_Query_NotFound(t *testing.T) {
	r, _ := seededReader(t, nil)

	_, err := r.Query(context.Background(), "missing-id")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestReader_Query_Pending(t *testing.T) {
	r, _ := seededReader(t, &domain.Job{
		ID:        "job-1",
		Status:    domain.StatusPending,
		Text:      "note",
		CreatedAt: time.Now().UTC(),
	})

	snapshot, err := r.Query(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, snapshot.Job.Status)
	assert.Nil(t, snapshot.Summary)
}

func TestReader_Query_Failed(t *testing.T) {
	now := time.Now().UTC()
	r, _ := seededReader(t, &domain.Job{
		ID:          "job-1",
		Status:      domain.StatusFailed,
		Error:       "inference failed: model unavailable",
		CreatedAt:   now,
		CompletedAt: &now,
	})

	snapshot, err := r.Query(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, snapshot.Job.Status)
	assert.Equal(t, "inference failed: model unavailable", snapshot.Job.Error)
	assert.Nil(t, snapshot.Summary)
}

func TestReader_Query_CompletedWithResult(t *testing.T) {
	now := time.Now().UTC()
	r, results := seededReader(t, &domain.Job{
		ID:          "job-1",
		Status:      domain.StatusCompleted,
		CreatedAt:   now,
		CompletedAt: &now,
	})
	require.NoError(t, results.Put(context.Background(), "job-1", &domain.ClinicalSummary{
		NarrativeSummary: "patient with intermittent chest pain",
	}))

	snapshot, err := r.Query(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, snapshot.Job.Status)
	require.NotNil(t, snapshot.Summary)
	assert.Equal(t, "patient with intermittent chest pain", snapshot.Summary.NarrativeSummary)
}

func TestReader_Query_CompletedWithoutResult(t *testing.T) {
	now := time.Now().UTC()
	r, _ := seededReader(t, &domain.Job{
		ID:          "job-1",
		Status:      domain.StatusCompleted,
		CreatedAt:   now,
		CompletedAt: &now,
	})

	_, err := r.Query(context.Background(), "job-1")
	assert.ErrorIs(t, err, domain.ErrResultMissing)
}
