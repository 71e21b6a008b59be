package workers

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/absolutely-right/internal/database"
	"github.com/benvon/absolutely-right/internal/queue"
	"github.com/benvon/absolutely-right/internal/telemetry"
	"github.com/benvon/absolutely-right/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// ErrPermanent marks jobs that can never succeed and go straight to the DLQ
var ErrPermanent = errors.New("permanent job failure")

// RowIngester stores daily_row jobs in the database
type RowIngester struct {
	repo     database.DailyStatsRepositoryInterface
	jobQueue queue.JobQueue
	logger   *zap.Logger
}

// NewRowIngester creates a row ingester. jobQueue is used to re-enqueue
// retries and may be nil, in which case failures go to the DLQ.
func NewRowIngester(repo database.DailyStatsRepositoryInterface, jobQueue queue.JobQueue, logger *zap.Logger) *RowIngester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RowIngester{repo: repo, jobQueue: jobQueue, logger: logger}
}

// ProcessJob handles one message and settles it with Ack or Nack
func (i *RowIngester) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	ctx, span := telemetry.Tracer().Start(ctx, "process_job")
	defer span.End()
	span.SetAttributes(
		attribute.String("job.id", job.ID.String()),
		attribute.String("job.type", string(job.Type)),
		attribute.Int("job.retry_count", job.RetryCount),
	)

	if job.Type != queue.JobTypeDailyRow {
		i.deadLetter(msg, job)
		err := fmt.Errorf("%w: unknown job type %s", ErrPermanent, job.Type)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err := i.ingest(ctx, job)
	if err == nil {
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		i.logger.Info("daily_row_ingested",
			zap.String("job_id", job.ID.String()),
			zap.String("day", job.Row.Day),
			zap.String("source", job.Source),
		)
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errors.Is(err, ErrPermanent) {
		i.deadLetter(msg, job)
		return err
	}
	return i.retry(ctx, msg, job, err)
}

func (i *RowIngester) ingest(ctx context.Context, job *queue.Job) error {
	if job.Row == nil {
		return fmt.Errorf("%w: daily_row job has no row", ErrPermanent)
	}
	if err := validation.Validate.Struct(job.Row); err != nil {
		return fmt.Errorf("%w: invalid row: %s", ErrPermanent, validation.Describe(err))
	}
	if err := i.repo.Upsert(ctx, *job.Row); err != nil {
		return fmt.Errorf("failed to store row: %w", err)
	}
	return nil
}

// retry re-enqueues a copy of the job with its retry count bumped. Once the
// budget is spent, or when re-enqueueing fails, the message is dead-lettered.
func (i *RowIngester) retry(ctx context.Context, msg queue.MessageInterface, job *queue.Job, cause error) error {
	if !job.CanRetry() || i.jobQueue == nil {
		i.deadLetter(msg, job)
		return fmt.Errorf("giving up after %d retries: %w", job.RetryCount, cause)
	}

	next := *job
	next.IncrementRetry()
	if err := i.jobQueue.Enqueue(ctx, &next); err != nil {
		i.logger.Error("job_requeue_failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		i.deadLetter(msg, job)
		return fmt.Errorf("failed to re-enqueue job: %w", cause)
	}
	if err := msg.Ack(); err != nil {
		i.logger.Warn("job_ack_failed", zap.String("job_id", job.ID.String()), zap.Error(err))
	}

	i.logger.Warn("job_retry_scheduled",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", next.RetryCount),
		zap.Int("max_retries", next.MaxRetries),
		zap.Error(cause),
	)
	return cause
}

func (i *RowIngester) deadLetter(msg queue.MessageInterface, job *queue.Job) {
	if err := msg.Nack(false); err != nil {
		i.logger.Error("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}
	i.logger.Warn("job_dead_lettered",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Int("retry_count", job.RetryCount),
	)
}
