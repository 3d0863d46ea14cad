package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hqride/clinical-summarizer/internal/domain"
	"github.com/hqride/clinical-summarizer/internal/store"
	"github.com/hqride/clinical-summarizer/internal/summarizer"
	"github.com/hqride/clinical-summarizer/internal/transcriber"
	"github.com/hqride/clinical-summarizer/shared/rabbitmq"
)

// Archiver copies terminal jobs into durable history. Archiving is
// best-effort and never affects job state.
type Archiver interface {
	Archive(ctx context.Context, job domain.Job) error
}

// Config holds worker configuration. Collaborator clients are constructed
// once at startup and injected, never created per job.
type Config struct {
	Logger        *slog.Logger
	Jobs          store.JobStore
	Results       store.ResultStore
	RabbitClient  *rabbitmq.Client
	Summarizer    summarizer.Provider
	Transcriber   transcriber.Transcriber
	Archive       Archiver // optional
	Concurrency   int
	JobTimeout    time.Duration
	PrefetchCount int
	TaskDeadline  time.Duration
	SweepSchedule string
	WorkerID      string
}

// Worker consumes the task queue and drives jobs through the
// pending -> processing -> terminal lifecycle.
type Worker struct {
	logger        *slog.Logger
	jobs          store.JobStore
	results       store.ResultStore
	rabbitClient  *rabbitmq.Client
	summarizer    summarizer.Provider
	transcriber   transcriber.Transcriber
	archive       Archiver
	concurrency   int
	jobTimeout    time.Duration
	prefetchCount int
	taskDeadline  time.Duration
	sweepSchedule string
	workerID      string

	tasksChan chan *task
	wg        sync.WaitGroup
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// task is one leased delivery: the job id plus the broker delivery tag the
// worker must ack or nack to release the lease.
type task struct {
	jobID       string
	deliveryTag uint64
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	workerID := cfg.WorkerID
	if workerID == "" {
		hostname, _ := os.Hostname()
		workerID = fmt.Sprintf("%s-%s", hostname, uuid.New().String()[:8])
	}

	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = cfg.Concurrency
	}

	return &Worker{
		logger:        cfg.Logger,
		jobs:          cfg.Jobs,
		results:       cfg.Results,
		rabbitClient:  cfg.RabbitClient,
		summarizer:    cfg.Summarizer,
		transcriber:   cfg.Transcriber,
		archive:       cfg.Archive,
		concurrency:   cfg.Concurrency,
		jobTimeout:    cfg.JobTimeout,
		prefetchCount: prefetch,
		taskDeadline:  cfg.TaskDeadline,
		sweepSchedule: cfg.SweepSchedule,
		workerID:      workerID,
		tasksChan:     make(chan *task),
		stopChan:      make(chan struct{}),
	}
}

// Start subscribes to the queue, spawns the pool, and blocks dispatching
// deliveries until the context is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
		slog.String("summarizer", w.summarizer.Name()),
		slog.String("transcriber", w.transcriber.Name()),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnPool(ctx)

	sweeper, err := w.startSweeper()
	if err != nil {
		return fmt.Errorf("failed to start stale-job sweeper: %w", err)
	}
	defer sweeper.Stop()

	w.dispatchDeliveries(ctx, deliveries)
	return nil
}

// Stop gracefully stops the worker, waiting for in-flight jobs.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...",
		slog.String("worker_id", w.workerID),
	)
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
