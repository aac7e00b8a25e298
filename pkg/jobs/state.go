// Package jobs runs report-generation work outside the request path and
// tracks each job as an explicit state-machine record.
package jobs

import (
	"context"
	"errors"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusStarted  Status = "STARTED"
	StatusProgress Status = "PROGRESS"
	StatusSuccess  Status = "SUCCESS"
	StatusFailure  Status = "FAILURE"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// Job is the state record for one report-generation attempt.
type Job struct {
	ID       string
	DonorID  string
	Status   Status
	Progress int
	Result   string
	Error    string
}

// ErrNotFound is returned by Store.Get for unknown job ids.
var ErrNotFound = errors.New("job not found")

// Store persists job state keyed by job id.
type Store interface {
	Put(ctx context.Context, j *Job) error
	Get(ctx context.Context, id string) (*Job, error)
}
