package lifecycle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kiranshivaraju/ytblog/pkg/models"
	"github.com/lthibault/jitterbug/v2"
)

// DefaultInterval is the time between two status fetches.
const DefaultInterval = 2 * time.Second

// StatusFetcher is the part of the backend client the Poller needs.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, jobID string) (*models.Job, error)
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the tick interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithJitter sets the standard deviation of normally distributed tick jitter.
func WithJitter(stdev time.Duration) Option {
	return func(p *Poller) {
		if stdev > 0 {
			p.jitter = stdev
		}
	}
}

// WithObserver registers fn to receive every Event. Observers run on the
// goroutine that caused the change, outside the Poller's lock. They may call
// State and Reset but must not call Close.
func WithObserver(fn func(Event)) Option {
	return func(p *Poller) {
		p.observers = append(p.observers, fn)
	}
}

// session is one polling run for one job id. A session is current while
// p.current points at it; responses belonging to any other session are stale.
type session struct {
	jobID  string
	cancel context.CancelFunc
	done   chan struct{}
	final  State
}

// Poller owns the lifecycle of at most one in-flight job. It polls the backend
// on a fixed interval until the job completes or fails, or until the owner
// resets or closes it.
type Poller struct {
	fetcher   StatusFetcher
	interval  time.Duration
	jitter    time.Duration
	observers []func(Event)

	mu      sync.Mutex
	state   State
	current *session
	closed  bool
	wg      sync.WaitGroup
}

// NewPoller creates an idle Poller.
func NewPoller(fetcher StatusFetcher, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		interval: DefaultInterval,
		state:    State{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns a snapshot of the current lifecycle state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start begins polling jobID, cancelling any schedule for a previous job.
// Cancelling ctx is treated like Reset. Start fails from a terminal phase;
// call Reset first.
func (p *Poller) Start(ctx context.Context, jobID string) error {
	if jobID == "" {
		return ErrEmptyJobID
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.state.Phase.IsTerminal() {
		p.mu.Unlock()
		return ErrTerminal
	}

	if prev := p.current; prev != nil {
		slog.Info("superseding job", "previous_job_id", prev.jobID, "job_id", jobID)
	}
	p.endSessionLocked()
	p.setLocked(State{
		Phase:         PhasePolling,
		JobID:         jobID,
		StatusMessage: MessageStarting,
	})

	sctx, cancel := context.WithCancel(ctx)
	s := &session{jobID: jobID, cancel: cancel, done: make(chan struct{})}
	p.current = s
	p.wg.Add(1)
	go p.run(sctx, s)

	st := p.state
	p.mu.Unlock()

	slog.Info("polling started", "job_id", jobID, "interval", p.interval)
	p.emit(Event{Type: EventStarted, State: st})
	return nil
}

// Reset cancels any polling and returns the Poller to PhaseIdle. A response
// still in flight is discarded when it arrives.
func (p *Poller) Reset() {
	p.mu.Lock()
	if p.current == nil && p.state.Phase == PhaseIdle {
		p.mu.Unlock()
		return
	}
	p.setLocked(State{Phase: PhaseIdle})
	p.endSessionLocked()
	st := p.state
	p.mu.Unlock()

	slog.Info("poller reset")
	p.emit(Event{Type: EventReset, State: st})
}

// Close is owner teardown. It cancels polling, waits for the polling
// goroutine to exit, and rejects later Start calls. No state change happens
// after Close returns.
func (p *Poller) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	changed := p.state.Phase != PhaseIdle
	if changed {
		p.setLocked(State{Phase: PhaseIdle})
	}
	p.endSessionLocked()
	st := p.state
	p.mu.Unlock()

	p.wg.Wait()
	if changed {
		p.emit(Event{Type: EventReset, State: st})
	}
}

// Wait blocks until the current polling session ends and returns the state it
// ended with: terminal on completion or failure, idle on reset or close. With
// no active session it returns the current state immediately.
func (p *Poller) Wait(ctx context.Context) (State, error) {
	p.mu.Lock()
	s := p.current
	st := p.state
	p.mu.Unlock()

	if s == nil {
		return st, nil
	}

	select {
	case <-s.done:
		return s.final, nil
	case <-ctx.Done():
		return p.State(), ctx.Err()
	}
}

// run is the polling task for one session. The ticker is released on every
// exit path.
func (p *Poller) run(ctx context.Context, s *session) {
	defer p.wg.Done()

	ticker := jitterbug.New(p.interval, &jitterbug.Norm{Stdev: p.jitter, Mean: 0})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.abandon(s)
			return
		case <-ticker.C:
		}

		if finished := p.tick(ctx, s); finished {
			return
		}
	}
}

// tick performs one status fetch and applies it if s is still current.
// It reports whether the session is over.
func (p *Poller) tick(ctx context.Context, s *session) bool {
	job, err := p.fetcher.FetchStatus(ctx, s.jobID)

	p.mu.Lock()
	if p.current != s {
		p.mu.Unlock()
		slog.Debug("discarding stale status response", "job_id", s.jobID)
		return true
	}
	if ctx.Err() != nil {
		// Parent context ended mid-fetch; run observes it and abandons.
		p.mu.Unlock()
		return false
	}

	ev := p.applyLocked(s, job, err)
	finished := p.current != s
	p.mu.Unlock()

	p.emit(ev)
	return finished
}

// applyLocked classifies one fetch result and transitions the state machine.
func (p *Poller) applyLocked(s *session, job *models.Job, err error) Event {
	if err == nil && job == nil {
		err = errNilSnapshot
	}
	if err == nil && job.JobID != "" && job.JobID != s.jobID {
		err = &mismatchedJobError{want: s.jobID, got: job.JobID}
	}

	if err != nil {
		next := p.state
		next.TransientError = MessageStatusCheckFailed
		p.setLocked(next)
		slog.Warn("status check failed", "job_id", s.jobID, "error", err)
		return Event{Type: EventTransientError, State: p.state, Err: err}
	}

	progress := job.ClampedProgress()

	switch job.Status {
	case models.JobStatusCompleted:
		if job.Result == nil {
			p.setLocked(State{
				Phase:        PhaseFailed,
				JobID:        s.jobID,
				Status:       job.Status,
				Progress:     progress,
				ErrorMessage: MessageMissingResult,
				ErrorKind:    ErrorKindContractViolation,
			})
			p.endSessionLocked()
			slog.Error("completed job has no result", "job_id", s.jobID)
			return Event{Type: EventFailed, State: p.state}
		}

		p.setLocked(State{
			Phase:    PhaseSucceeded,
			JobID:    s.jobID,
			Status:   job.Status,
			Progress: progress,
			Document: job.Result,
		})
		p.endSessionLocked()
		slog.Info("job completed", "job_id", s.jobID, "title", job.Result.Title)
		return Event{Type: EventSucceeded, State: p.state}

	case models.JobStatusFailed:
		msg := MessageJobFailed
		if job.ErrorMessage != nil && *job.ErrorMessage != "" {
			msg = *job.ErrorMessage
		}
		p.setLocked(State{
			Phase:        PhaseFailed,
			JobID:        s.jobID,
			Status:       job.Status,
			Progress:     progress,
			ErrorMessage: msg,
			ErrorKind:    ErrorKindJobFailed,
		})
		p.endSessionLocked()
		slog.Info("job failed", "job_id", s.jobID, "error_message", msg)
		return Event{Type: EventFailed, State: p.state}

	default:
		if !job.Status.Known() {
			slog.Warn("unknown job status, continuing to poll", "job_id", s.jobID, "status", job.Status)
		}
		if progress < p.state.Progress {
			slog.Debug("progress went backwards", "job_id", s.jobID, "from", p.state.Progress, "to", progress)
		}
		p.setLocked(State{
			Phase:         PhasePolling,
			JobID:         s.jobID,
			Status:        job.Status,
			Progress:      progress,
			StatusMessage: progressMessage(job.Status, progress),
		})
		slog.Debug("job progress", "job_id", s.jobID, "status", job.Status, "progress", progress)
		return Event{Type: EventProgress, State: p.state}
	}
}

// abandon handles the parent context of s ending while s is still current.
func (p *Poller) abandon(s *session) {
	p.mu.Lock()
	if p.current != s {
		p.mu.Unlock()
		return
	}
	p.setLocked(State{Phase: PhaseIdle})
	p.endSessionLocked()
	st := p.state
	p.mu.Unlock()

	slog.Info("polling cancelled by owner context", "job_id", s.jobID)
	p.emit(Event{Type: EventReset, State: st})
}

// setLocked replaces the state if the state machine allows the transition.
func (p *Poller) setLocked(next State) {
	if !CanTransition(p.state.Phase, next.Phase) {
		slog.Error("illegal lifecycle transition", "from", p.state.Phase, "to", next.Phase, "job_id", next.JobID)
		return
	}
	p.state = next
}

// endSessionLocked detaches the current session, cancels its context and
// releases its waiters with the state as it is now.
func (p *Poller) endSessionLocked() {
	s := p.current
	if s == nil {
		return
	}
	p.current = nil
	s.final = p.state
	s.cancel()
	close(s.done)
}

func (p *Poller) emit(ev Event) {
	for _, fn := range p.observers {
		fn(ev)
	}
}
