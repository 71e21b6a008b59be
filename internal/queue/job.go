package queue

import (
	"time"

	"github.com/benvon/absolutely-right/internal/models"
	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeDailyRow stores one day of uploaded aggregates
	JobTypeDailyRow JobType = "daily_row"
)

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID        `json:"id"`
	Type       JobType          `json:"type"`
	Row        *models.DailyRow `json:"row,omitempty"`
	Source     string           `json:"source,omitempty"`
	NotAfter   *time.Time       `json:"not_after,omitempty"` // nil = no expiration
	CreatedAt  time.Time        `json:"created_at"`
	RetryCount int              `json:"retry_count"`
	MaxRetries int              `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// NewDailyRowJob wraps an upload row in a job
func NewDailyRowJob(row models.DailyRow, source string) *Job {
	job := NewJob(JobTypeDailyRow)
	job.Row = &row
	job.Source = source
	return job
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
