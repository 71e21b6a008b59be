package upload

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/absolutely-right/internal/models"
	"github.com/benvon/absolutely-right/internal/queue"
	"github.com/benvon/absolutely-right/internal/validation"
)

// QueueSource tags jobs enqueued by the backfill uploader
const QueueSource = "backfill"

// QueueUploader publishes rows as jobs for the ingest worker
type QueueUploader struct {
	queue queue.JobQueue
}

// NewQueueUploader wraps a job queue
func NewQueueUploader(q queue.JobQueue) *QueueUploader {
	return &QueueUploader{queue: q}
}

// Upload enqueues one row
func (u *QueueUploader) Upload(ctx context.Context, row models.DailyRow) Result {
	if err := validation.Validate.Struct(row); err != nil {
		return Failed(fmt.Errorf("invalid row: %s", validation.Describe(err)))
	}

	if err := u.queue.Enqueue(ctx, queue.NewDailyRowJob(row, QueueSource)); err != nil {
		if errors.Is(err, queue.ErrQueueClosed) || ctx.Err() != nil {
			return Aborted(err)
		}
		return Failed(err)
	}
	return Succeeded()
}
