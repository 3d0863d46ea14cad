package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hqride/clinical-summarizer/internal/domain"
	"github.com/hqride/clinical-summarizer/shared/rabbitmq"
)

// Enqueuer admits tasks into the queue. The dispatcher is its only caller.
type Enqueuer interface {
	Enqueue(ctx context.Context, jobID string) error
}

// EncodeTask serializes a task message for the wire.
func EncodeTask(jobID string) ([]byte, error) {
	return json.Marshal(domain.TaskMessage{JobID: jobID})
}

// DecodeTask parses a queue message body back into a task.
func DecodeTask(body []byte) (domain.TaskMessage, error) {
	var msg domain.TaskMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return domain.TaskMessage{}, fmt.Errorf("failed to parse task message: %w", err)
	}
	if msg.JobID == "" {
		return domain.TaskMessage{}, fmt.Errorf("task message missing job_id")
	}
	return msg, nil
}

// RabbitQueue is the RabbitMQ-backed task queue. Each task is delivered to
// exactly one consumer; a manual-ack delivery is the worker's lease. The
// per-message expiration bounds how long an undelivered task may wait.
type RabbitQueue struct {
	client   *rabbitmq.Client
	deadline time.Duration
	logger   *slog.Logger
}

// NewRabbitQueue creates a RabbitQueue. deadline is the task execution
// deadline applied to every enqueued message.
func NewRabbitQueue(client *rabbitmq.Client, deadline time.Duration, logger *slog.Logger) *RabbitQueue {
	return &RabbitQueue{
		client:   client,
		deadline: deadline,
		logger:   logger,
	}
}

func (q *RabbitQueue) Enqueue(ctx context.Context, jobID string) error {
	body, err := EncodeTask(jobID)
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}

	if err := q.client.PublishWithRetry(ctx, body, "application/json", q.deadline); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	q.logger.Debug("Task enqueued",
		slog.String("job_id", jobID),
		slog.Duration("deadline", q.deadline),
	)

	return nil
}

// Connected reports whether the underlying broker connection is alive.
func (q *RabbitQueue) Connected() bool {
	return q.client.IsConnected()
}

var _ Enqueuer = (*RabbitQueue)(nil)
