package models

// JobStatus is the backend-reported status of a generation job.
// Values outside the known set are kept verbatim and treated as non-terminal.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further status changes are expected.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Known reports whether s is one of the four documented statuses.
func (s JobStatus) Known() bool {
	switch s {
	case JobStatusQueued, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// JobResponse is returned by POST /generate. The client then polls
// GET /status/{job_id} until the job is completed or failed.
type JobResponse struct {
	JobID   string    `json:"job_id"`
	Status  JobStatus `json:"status"`
	Message string    `json:"message"`
}

// Job is a read-only snapshot of a backend job, refreshed on every poll.
// Result is set only when Status is completed; ErrorMessage only when failed.
type Job struct {
	JobID        string        `json:"job_id"`
	Status       JobStatus     `json:"status"`
	Progress     int           `json:"progress"`
	CreatedAt    Timestamp     `json:"created_at"`
	UpdatedAt    *Timestamp    `json:"updated_at,omitempty"`
	CompletedAt  *Timestamp    `json:"completed_at,omitempty"`
	ErrorMessage *string       `json:"error_message,omitempty"`
	Result       *BlogDocument `json:"result,omitempty"`
}

// ClampedProgress returns Progress bounded to [0, 100].
func (j *Job) ClampedProgress() int {
	switch {
	case j.Progress < 0:
		return 0
	case j.Progress > 100:
		return 100
	default:
		return j.Progress
	}
}
