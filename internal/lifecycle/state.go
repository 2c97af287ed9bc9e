// Package lifecycle tracks one backend generation job from submission to a
// terminal state.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/kiranshivaraju/ytblog/pkg/models"
)

// Phase is the lifecycle phase of a Poller.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePolling   Phase = "polling"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// IsTerminal reports whether only Reset can leave p.
func (p Phase) IsTerminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// transitions lists every allowed phase change. Polling → Polling covers both
// progress updates and a restart on a new job id.
var transitions = map[Phase][]Phase{
	PhaseIdle:      {PhasePolling},
	PhasePolling:   {PhasePolling, PhaseSucceeded, PhaseFailed, PhaseIdle},
	PhaseSucceeded: {PhaseIdle},
	PhaseFailed:    {PhaseIdle},
}

// CanTransition reports whether the state machine allows from → to.
func CanTransition(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// ErrorKind classifies why a Poller ended in PhaseFailed.
type ErrorKind string

const (
	ErrorKindNone              ErrorKind = ""
	ErrorKindJobFailed         ErrorKind = "job_failed"
	ErrorKindContractViolation ErrorKind = "contract_violation"
)

// Messages shown to the owner.
const (
	MessageStarting          = "Starting generation..."
	MessageJobFailed         = "Generation failed"
	MessageMissingResult     = "Generation completed without a result"
	MessageStatusCheckFailed = "Failed to check job status"
)

var (
	ErrEmptyJobID = errors.New("job id is required")
	ErrTerminal   = errors.New("poller is in a terminal state; reset first")
	ErrClosed     = errors.New("poller is closed")

	errNilSnapshot = errors.New("status fetch returned no job")
)

type mismatchedJobError struct {
	want, got string
}

func (e *mismatchedJobError) Error() string {
	return fmt.Sprintf("status response is for job %q, want %q", e.got, e.want)
}

// State is the owner-visible snapshot of a Poller. It is a value; later
// changes to the Poller never mutate a State already handed out.
type State struct {
	Phase    Phase            `json:"phase"`
	JobID    string           `json:"job_id,omitempty"`
	Status   models.JobStatus `json:"status,omitempty"`
	Progress int              `json:"progress"`

	StatusMessage string `json:"status_message,omitempty"`

	// TransientError is set when the latest status fetch failed. Polling continues.
	TransientError string `json:"transient_error,omitempty"`

	Document     *models.BlogDocument `json:"document,omitempty"`
	ErrorMessage string               `json:"error_message,omitempty"`
	ErrorKind    ErrorKind            `json:"error_kind,omitempty"`
}

// Busy reports whether a job is being tracked and not yet finished.
func (s State) Busy() bool {
	return s.Phase == PhasePolling
}

func progressMessage(status models.JobStatus, progress int) string {
	return fmt.Sprintf("Status: %s... %d%%", status, progress)
}

// EventType names a lifecycle notification.
type EventType string

const (
	EventStarted        EventType = "started"
	EventProgress       EventType = "progress"
	EventTransientError EventType = "transient_error"
	EventSucceeded      EventType = "succeeded"
	EventFailed         EventType = "failed"
	EventReset          EventType = "reset"
)

// Event is delivered to observers after each state change.
type Event struct {
	Type  EventType
	State State
	// Err is the fetch error for EventTransientError.
	Err error
}
