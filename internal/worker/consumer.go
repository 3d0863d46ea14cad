package worker

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hqride/clinical-summarizer/internal/queue"
)

// setupConsumer configures QoS and starts consuming from the task queue.
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	channel := w.rabbitClient.GetChannel()
	if channel == nil {
		return nil, fmt.Errorf("rabbitmq channel is nil")
	}

	// Prefetch bounds how many unacked deliveries this consumer may hold;
	// anything beyond the pool size would just sit leased and idle.
	if err := channel.Qos(w.prefetchCount, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	w.logger.Info("RabbitMQ QoS configured",
		slog.Int("prefetch_count", w.prefetchCount),
	)

	deliveries, err := w.rabbitClient.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	return deliveries, nil
}

// dispatchDeliveries feeds broker deliveries to the pool until the context
// is canceled or the delivery channel closes.
func (w *Worker) dispatchDeliveries(ctx context.Context, deliveries <-chan amqp.Delivery) {
	w.logger.Info("Task dispatcher started",
		slog.String("worker_id", w.workerID),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Task dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			msg, err := queue.DecodeTask(delivery.Body)
			if err != nil {
				w.logger.Error("Dropping malformed task message",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				// No requeue: a malformed message will never parse better.
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed message",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			t := &task{
				jobID:       msg.JobID,
				deliveryTag: delivery.DeliveryTag,
			}

			select {
			case w.tasksChan <- t:
				w.logger.Debug("Task dispatched to pool",
					slog.String("job_id", t.jobID),
					slog.Uint64("delivery_tag", t.deliveryTag),
				)
			case <-ctx.Done():
				w.logger.Info("Task dispatcher stopped while dispatching")
				// Requeue so another worker can pick the task up.
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK message on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return
			}
		}
	}
}
