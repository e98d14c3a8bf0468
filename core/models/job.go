package models

import "time"

// Job represents one asynchronous training run tracked from submission to
// its terminal outcome
type Job struct {
	ID            string
	Correlation   Correlation
	Config        string // opaque training config, passed through to the worker
	Status        JobStatus
	SubmittedAt   time.Time
	CompletedAt   *time.Time
	Result        *RegistryEntry // set only on success
	FailureReason string         // set only on failure
}

// JobStatus represents the current status of a job
type JobStatus string

const (
	JobStatusSubmitted JobStatus = "submitted"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further transition is allowed out of s
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Correlation is the opaque routing information letting the gateway deliver
// a later async notification back to the request's true origin
type Correlation struct {
	RequestID   string `json:"request_id"`
	User        string `json:"user"`
	Channel     string `json:"channel"`
	CallbackURL string `json:"callback_url"`
}

// JobOutcome is the terminal result pushed back to the front-end
type JobOutcome struct {
	Correlation Correlation    `json:"correlation"`
	JobID       string         `json:"job_id"`
	Status      JobStatus      `json:"status"`
	Entry       *RegistryEntry `json:"entry,omitempty"`
	Reason      string         `json:"reason,omitempty"`
}
