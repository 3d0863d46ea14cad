package worker

import (
	"context"
	"fmt"
	"log/slog"
)

// spawnPool starts the configured number of processing goroutines.
func (w *Worker) spawnPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.poolLoop(ctx, i)
	}
}

// poolLoop processes tasks until shutdown. Every dequeued task is acked or
// nacked exactly once; a failing job never takes the loop down with it.
func (w *Worker) poolLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Info("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Worker goroutine stopping",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			w.logger.Info("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case t, ok := <-w.tasksChan:
			if !ok {
				return
			}

			err := w.ProcessTask(ctx, t.jobID)

			channel := w.rabbitClient.GetChannel()
			if channel == nil {
				w.logger.Error("Failed to get RabbitMQ channel for ACK/NACK",
					slog.String("worker_name", workerName),
					slog.String("job_id", t.jobID),
				)
				continue
			}

			if err != nil {
				// Only infrastructure faults reach here; job-level failures
				// were already recorded as a failed status. Requeue so the
				// task gets another chance once the backend recovers.
				w.logger.Error("Task processing hit an infrastructure error",
					slog.String("worker_name", workerName),
					slog.String("job_id", t.jobID),
					slog.String("error", err.Error()),
				)
				if nackErr := channel.Nack(t.deliveryTag, false, true); nackErr != nil {
					w.logger.Error("Failed to NACK message",
						slog.String("job_id", t.jobID),
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			if ackErr := channel.Ack(t.deliveryTag, false); ackErr != nil {
				w.logger.Error("Failed to ACK message",
					slog.String("job_id", t.jobID),
					slog.String("error", ackErr.Error()),
				)
			}
		}
	}
}
