package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hqride/clinical-summarizer/internal/domain"
)

// maxTxRetries bounds optimistic-lock retries on concurrent status writes.
// Only one worker holds a job at a time, so contention is rare.
const maxTxRetries = 5

// Config holds Redis connection configuration.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Connect creates and verifies a Redis client.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("Successfully connected to Redis",
		slog.String("addr", cfg.Addr),
		slog.Int("db", cfg.DB),
	)

	return client, nil
}

// RedisJobStore implements JobStore on Redis. Each job is a JSON blob under
// job:<id> with a fixed TTL set at creation.
type RedisJobStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisJobStore creates a RedisJobStore with the given record TTL.
func NewRedisJobStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisJobStore {
	return &RedisJobStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *RedisJobStore) Create(ctx context.Context, job *domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	// SET NX guards against id collisions instead of assuming uuid
	// uniqueness.
	ok, err := s.client.SetNX(ctx, jobKey(job.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	if !ok {
		return domain.ErrDuplicateJob
	}

	s.logger.Debug("Job record created",
		slog.String("job_id", job.ID),
		slog.Duration("ttl", s.ttl),
	)

	return nil
}

func (s *RedisJobStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	data, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var job domain.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}

	return &job, nil
}

func (s *RedisJobStore) SetStatus(ctx context.Context, id string, status domain.JobStatus, opts ...StatusOption) error {
	var update statusUpdate
	for _, opt := range opts {
		opt(&update)
	}

	key := jobKey(id)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrJobNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read job: %w", err)
		}

		var job domain.Job
		if err := json.Unmarshal(data, &job); err != nil {
			return fmt.Errorf("failed to unmarshal job %s: %w", id, err)
		}

		if !domain.ValidTransition(job.Status, status) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, job.Status, status)
		}

		job.Status = status
		job.Error = update.errorText
		if status.Terminal() {
			now := time.Now().UTC()
			job.CompletedAt = &now
		}

		updated, err := json.Marshal(&job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}

		// KeepTTL preserves the creation-time expiry; activity never
		// extends a record's life.
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return err
		}

		s.logger.Info("Job status updated",
			slog.String("job_id", id),
			slog.String("status", string(status)),
		)
		return nil
	}

	return fmt.Errorf("failed to update job %s: optimistic lock retries exhausted", id)
}

func (s *RedisJobStore) StaleProcessing(ctx context.Context, olderThan time.Duration) ([]domain.Job, error) {
	cutoff := time.Now().Add(-olderThan)

	var stale []domain.Job
	iter := s.client.Scan(ctx, 0, jobKeyPattern, 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			// Expired between SCAN and GET.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read job record: %w", err)
		}

		var job domain.Job
		if err := json.Unmarshal(data, &job); err != nil {
			s.logger.Warn("Skipping unreadable job record",
				slog.String("key", iter.Val()),
				slog.String("error", err.Error()),
			)
			continue
		}

		if job.Status == domain.StatusProcessing && job.CreatedAt.Before(cutoff) {
			stale = append(stale, job)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan job records: %w", err)
	}

	return stale, nil
}

func (s *RedisJobStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// RedisResultStore implements ResultStore on Redis under result:<id>. The
// result expires together with its job record: Put copies the job key's
// remaining TTL so neither outlives the other.
type RedisResultStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisResultStore creates a RedisResultStore. The ttl is the fallback
// when the job record's remaining TTL cannot be read.
func NewRedisResultStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisResultStore {
	return &RedisResultStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *RedisResultStore) Put(ctx context.Context, id string, summary *domain.ClinicalSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	ttl := s.ttl
	if remaining, err := s.client.TTL(ctx, jobKey(id)).Result(); err == nil && remaining > 0 {
		ttl = remaining
	}

	if err := s.client.Set(ctx, resultKey(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}

	s.logger.Debug("Result stored",
		slog.String("job_id", id),
		slog.Int("size", len(data)),
		slog.Duration("ttl", ttl),
	)

	return nil
}

func (s *RedisResultStore) Get(ctx context.Context, id string) (*domain.ClinicalSummary, error) {
	data, err := s.client.Get(ctx, resultKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	var summary domain.ClinicalSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result %s: %w", id, err)
	}

	return &summary, nil
}

var (
	_ JobStore    = (*RedisJobStore)(nil)
	_ ResultStore = (*RedisResultStore)(nil)
)
