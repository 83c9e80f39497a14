package model

import "time"

type JobStatus string

const (
	JobStatusCompleted    JobStatus = "completed"
	JobStatusFailed       JobStatus = "failed"
	JobStatusTimedOut     JobStatus = "timed_out"
	JobStatusDeadLettered JobStatus = "dead_lettered"
	JobStatusDeferred     JobStatus = "deferred"
)

// JobAttempts is the consumer's in-memory retry bookkeeping for one request.
type JobAttempts struct {
	RequestID   string
	WorkType    WorkType
	Retries     int
	LastError   string
	NextAttempt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
