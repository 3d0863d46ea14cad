package archive

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hqride/clinical-summarizer/internal/domain"
)

func TestArchive_RejectsNonTerminalJobs(t *testing.T) {
	s := &Storage{logger: slog.Default()}
	now := time.Now().UTC()

	tests := []struct {
		name string
		job  domain.Job
	}{
		{
			name: "pending job",
			job:  domain.Job{ID: "job-1", Status: domain.StatusPending, CreatedAt: now},
		},
		{
			name: "processing job",
			job:  domain.Job{ID: "job-1", Status: domain.StatusProcessing, CreatedAt: now},
		},
		{
			name: "terminal status without completion time",
			job:  domain.Job{ID: "job-1", Status: domain.StatusCompleted, CreatedAt: now},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Archive(context.Background(), tt.job)
			assert.ErrorContains(t, err, "not terminal")
		})
	}
}
