package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqride/clinical-summarizer/internal/domain"
	"github.com/hqride/clinical-summarizer/internal/queue"
	"github.com/hqride/clinical-summarizer/internal/store"
)

func newDispatcher(t *testing.T) (*Dispatcher, *store.MemoryJobStore, *queue.MemoryQueue) {
	t.Helper()
	jobs := store.NewMemoryJobStore(24 * time.Hour)
	q := queue.NewMemoryQueue(64)
	return NewDispatcher(jobs, q, slog.Default()), jobs, q
}

func TestDispatcher_Submit_Validation(t *testing.T) {
	d, _, q := newDispatcher(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		text     string
		audioRef string
	}{
		{"neither payload", "", ""},
		{"both payloads", "patient reports chest pain", "s3://bucket/visit.wav"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := d.Submit(ctx, tt.text, tt.audioRef)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Nil(t, job)
			assert.Equal(t, 0, q.Len(), "rejected submissions must not enqueue")
		})
	}
}

func TestDispatcher_Submit_Text(t *testing.T) {
	d, jobs, q := newDispatcher(t)
	ctx := context.Background()

	job, err := d.Submit(ctx, "patient reports chest pain for two days", "")
	require.NoError(t, err)

	_, err = uuid.Parse(job.ID)
	require.NoError(t, err, "job id must be a UUID")
	assert.Equal(t, domain.StatusPending, job.Status)
	assert.False(t, job.CreatedAt.IsZero())
	assert.Nil(t, job.CompletedAt)

	// The record is immediately visible to polling.
	stored, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)

	// Exactly one task carrying this job id was enqueued.
	require.Equal(t, 1, q.Len())
	assert.Equal(t, job.ID, <-q.Tasks())
}

func TestDispatcher_Submit_Audio(t *testing.T) {
	d, jobs, _ := newDispatcher(t)
	ctx := context.Background()

	job, err := d.Submit(ctx, "", "s3://recordings/visit-17.wav")
	require.NoError(t, err)

	stored, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "s3://recordings/visit-17.wav", stored.AudioRef)
	assert.Empty(t, stored.Text)
}

func TestDispatcher_Submit_UniqueIDs(t *testing.T) {
	d, _, _ := newDispatcher(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		job, err := d.Submit(ctx, "note", "")
		require.NoError(t, err)
		assert.False(t, seen[job.ID], "job ids must be unique")
		seen[job.ID] = true
	}
}

func TestDispatcher_Submit_EnqueueFailure(t *testing.T) {
	d, _, q := newDispatcher(t)
	ctx := context.Background()

	broken := errors.New("broker unavailable")
	q.SetFailure(broken)

	job, err := d.Submit(ctx, "patient reports chest pain", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, broken)
	assert.Nil(t, job)
}
