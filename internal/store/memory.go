package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hqride/clinical-summarizer/internal/domain"
)

// MemoryJobStore is an in-process JobStore used in tests and local runs
// without a Redis backend. It honors the same TTL and transition semantics
// as the Redis implementation.
type MemoryJobStore struct {
	mu   sync.Mutex
	jobs map[string]memoryRecord
	ttl  time.Duration

	// Now is the clock used for expiry checks; tests override it to
	// simulate passage of time.
	Now func() time.Time
}

type memoryRecord struct {
	job       domain.Job
	expiresAt time.Time
}

// NewMemoryJobStore creates an empty MemoryJobStore with the given TTL.
func NewMemoryJobStore(ttl time.Duration) *MemoryJobStore {
	return &MemoryJobStore{
		jobs: make(map[string]memoryRecord),
		ttl:  ttl,
		Now:  time.Now,
	}
}

func (s *MemoryJobStore) Create(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.jobs[job.ID]; ok && s.Now().Before(rec.expiresAt) {
		return domain.ErrDuplicateJob
	}

	s.jobs[job.ID] = memoryRecord{
		job:       *job,
		expiresAt: s.Now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryJobStore) Get(_ context.Context, id string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok || !s.Now().Before(rec.expiresAt) {
		return nil, domain.ErrJobNotFound
	}

	job := rec.job
	return &job, nil
}

func (s *MemoryJobStore) SetStatus(_ context.Context, id string, status domain.JobStatus, opts ...StatusOption) error {
	var update statusUpdate
	for _, opt := range opts {
		opt(&update)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok || !s.Now().Before(rec.expiresAt) {
		return domain.ErrJobNotFound
	}

	if !domain.ValidTransition(rec.job.Status, status) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, rec.job.Status, status)
	}

	rec.job.Status = status
	rec.job.Error = update.errorText
	if status.Terminal() {
		now := s.Now().UTC()
		rec.job.CompletedAt = &now
	}

	s.jobs[id] = rec
	return nil
}

func (s *MemoryJobStore) StaleProcessing(_ context.Context, olderThan time.Duration) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.Now().Add(-olderThan)

	var stale []domain.Job
	for _, rec := range s.jobs {
		if !s.Now().Before(rec.expiresAt) {
			continue
		}
		if rec.job.Status == domain.StatusProcessing && rec.job.CreatedAt.Before(cutoff) {
			stale = append(stale, rec.job)
		}
	}
	return stale, nil
}

func (s *MemoryJobStore) Ping(context.Context) error { return nil }

// MemoryResultStore is the in-process counterpart of RedisResultStore.
type MemoryResultStore struct {
	mu      sync.Mutex
	results map[string]memoryResult
	ttl     time.Duration

	Now func() time.Time
}

type memoryResult struct {
	summary   domain.ClinicalSummary
	expiresAt time.Time
}

// NewMemoryResultStore creates an empty MemoryResultStore with the given TTL.
func NewMemoryResultStore(ttl time.Duration) *MemoryResultStore {
	return &MemoryResultStore{
		results: make(map[string]memoryResult),
		ttl:     ttl,
		Now:     time.Now,
	}
}

func (s *MemoryResultStore) Put(_ context.Context, id string, summary *domain.ClinicalSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[id] = memoryResult{
		summary:   *summary,
		expiresAt: s.Now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryResultStore) Get(_ context.Context, id string) (*domain.ClinicalSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.results[id]
	if !ok || !s.Now().Before(rec.expiresAt) {
		return nil, domain.ErrJobNotFound
	}

	summary := rec.summary
	return &summary, nil
}

var (
	_ JobStore    = (*MemoryJobStore)(nil)
	_ ResultStore = (*MemoryResultStore)(nil)
)
