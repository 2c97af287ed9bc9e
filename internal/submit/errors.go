package submit

import (
	"errors"
	"fmt"

	"github.com/kiranshivaraju/ytblog/internal/blogapi"
)

// Messages shown when the backend gives no explanation of its own.
const (
	MessageSubmitFailed = "Failed to start generation"
	MessageEmailFailed  = "Failed to send email"
)

var (
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrNoCompletedJob     = errors.New("no completed job to email")
	ErrMissingJobID       = errors.New("backend accepted the job without a job id")
)

// ValidationError reports a missing or malformed form field. No request is
// sent when Submit returns one.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SubmissionError reports a failed create-job call. Message is safe to show.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submitting job: %s: %v", e.Message, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// EmailError reports a failed send-email call. Message is safe to show.
type EmailError struct {
	JobID   string
	Message string
	Err     error
}

func (e *EmailError) Error() string {
	return fmt.Sprintf("emailing job %s: %s: %v", e.JobID, e.Message, e.Err)
}

func (e *EmailError) Unwrap() error { return e.Err }

// userMessage prefers the backend's own explanation over fallback.
func userMessage(err error, fallback string) string {
	if msg, ok := blogapi.ServerMessage(err); ok {
		return msg
	}
	return fallback
}
