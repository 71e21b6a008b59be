package main

import (
	"context"

	"github.com/benvon/absolutely-right/internal/logger"
	"github.com/benvon/absolutely-right/internal/queue"
	"go.uber.org/zap"
)

// JobProcessor handles one delivery and settles it
type JobProcessor interface {
	ProcessJob(ctx context.Context, msg queue.MessageInterface) error
}

// consume feeds deliveries to proc until ctx ends or the message channel closes.
// Queue errors are logged and do not stop the loop.
func consume(ctx context.Context, msgs <-chan *queue.Message, errs <-chan error, proc JobProcessor, zapLogger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			zapLogger.Error("queue_error", zap.String("error", logger.SanitizeError(err)))
		case msg, ok := <-msgs:
			if !ok {
				zapLogger.Info("message_channel_closed")
				return
			}
			if err := proc.ProcessJob(ctx, msg); err != nil {
				job := msg.GetJob()
				zapLogger.Error("failed_to_process_job",
					zap.String("job_id", job.ID.String()),
					zap.String("job_type", string(job.Type)),
					zap.Error(err),
				)
			}
		}
	}
}
