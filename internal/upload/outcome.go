package upload

import (
	"context"

	"github.com/benvon/absolutely-right/internal/models"
)

// Outcome classifies the result of uploading one row
type Outcome int

const (
	// Success means the collector stored the row
	Success Outcome = iota
	// Failure means this row was not stored; later rows may still succeed
	Failure
	// Abort means no later row can succeed either, e.g. rejected credentials
	Abort
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// Result is the outcome of one upload call with its cause
type Result struct {
	Outcome Outcome
	Err     error
}

// Succeeded builds a Success result
func Succeeded() Result { return Result{Outcome: Success} }

// Failed builds a Failure result
func Failed(err error) Result { return Result{Outcome: Failure, Err: err} }

// Aborted builds an Abort result
func Aborted(err error) Result { return Result{Outcome: Abort, Err: err} }

// Uploader sends one daily row to a collector
type Uploader interface {
	Upload(ctx context.Context, row models.DailyRow) Result
}
