package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hqride/clinical-summarizer/internal/domain"
	"github.com/hqride/clinical-summarizer/shared/postgresql"
)

// Schema is the job-history table. Terminal jobs are copied here so a
// durable record survives the Redis TTL window.
const Schema = `
CREATE TABLE IF NOT EXISTS job_history (
	job_id       UUID PRIMARY KEY,
	status       TEXT NOT NULL,
	text_chars   INTEGER NOT NULL DEFAULT 0,
	audio_ref    TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS job_history_created_at_idx ON job_history (created_at DESC, job_id DESC);
`

// Record is one archived terminal job. Payload contents are not retained,
// only their shape, so the archive never carries clinical text.
type Record struct {
	JobID       string    `db:"job_id"`
	Status      string    `db:"status"`
	TextChars   int       `db:"text_chars"`
	AudioRef    string    `db:"audio_ref"`
	Error       string    `db:"error"`
	CreatedAt   time.Time `db:"created_at"`
	CompletedAt time.Time `db:"completed_at"`
}

// Storage persists and lists archived jobs in PostgreSQL.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a Storage backed by the given PostgreSQL client.
func NewStorage(pg *postgresql.Client, logger *slog.Logger) *Storage {
	return &Storage{
		db:     pg.GetDB(),
		logger: logger,
	}
}

// EnsureSchema creates the history table if it does not exist.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to ensure job_history schema: %w", err)
	}
	return nil
}

// Archive inserts a terminal job into the history table. Re-inserting the
// same job id is a no-op.
func (s *Storage) Archive(ctx context.Context, job domain.Job) error {
	if !job.Status.Terminal() || job.CompletedAt == nil {
		return fmt.Errorf("job %s is not terminal", job.ID)
	}

	query := `
		INSERT INTO job_history (
			job_id, status, text_chars, audio_ref, error, created_at, completed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		ON CONFLICT (job_id) DO NOTHING
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.ID,
		string(job.Status),
		len(job.Text),
		job.AudioRef,
		job.Error,
		job.CreatedAt,
		*job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to archive job: %w", err)
	}

	return nil
}

// Filter narrows a history listing.
type Filter struct {
	Status   string
	PageSize int
	Cursor   *Cursor
}

// Cursor marks a position in the (created_at, job_id) ordering.
type Cursor struct {
	CreatedAt time.Time
	JobID     string
}

// List returns archived jobs newest first, fetching one extra row past
// PageSize so callers can detect whether more results exist.
func (s *Storage) List(ctx context.Context, filter Filter) ([]Record, error) {
	query := `
		SELECT job_id, status, text_chars, audio_ref, error, created_at, completed_at
		FROM job_history
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, job_id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var records []Record
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list job history: %w", err)
	}

	return records, nil
}
