// Package submit turns a generation form into a backend job and hands the job
// to the lifecycle poller.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/kiranshivaraju/ytblog/internal/blogapi"
	"github.com/kiranshivaraju/ytblog/internal/lifecycle"
	"github.com/kiranshivaraju/ytblog/pkg/models"
)

// Tracker is the part of the lifecycle poller the Controller drives.
type Tracker interface {
	Start(ctx context.Context, jobID string) error
	Reset()
	State() lifecycle.State
}

// Controller validates submissions, creates jobs and starts tracking them.
// It allows one create-job call at a time.
type Controller struct {
	client  blogapi.Client
	tracker Tracker

	inFlight atomic.Bool
}

// NewController creates a new Controller.
func NewController(client blogapi.Client, tracker Tracker) *Controller {
	return &Controller{client: client, tracker: tracker}
}

// Busy reports whether a create-job call is waiting for its reply.
func (c *Controller) Busy() bool {
	return c.inFlight.Load()
}

// Submit validates req, creates the backend job and starts polling it.
// Channel name and video title are trimmed; email is sent as given and
// omitted when empty. Polling outlives ctx; it ends when the job does or when
// the tracker is reset or closed.
func (c *Controller) Submit(ctx context.Context, req models.GenerationRequest) (string, error) {
	req.ChannelName = strings.TrimSpace(req.ChannelName)
	req.VideoTitle = strings.TrimSpace(req.VideoTitle)
	if err := validate(req); err != nil {
		return "", err
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		return "", ErrSubmissionInFlight
	}
	defer c.inFlight.Store(false)

	resp, err := c.client.CreateJob(ctx, req)
	if err != nil {
		slog.Warn("create job failed", "channel", req.ChannelName, "error", err)
		return "", &SubmissionError{Message: userMessage(err, MessageSubmitFailed), Err: err}
	}
	if resp == nil || resp.JobID == "" {
		slog.Error("create job reply has no job id", "channel", req.ChannelName)
		return "", &SubmissionError{Message: MessageSubmitFailed, Err: ErrMissingJobID}
	}

	if err := c.track(ctx, resp.JobID); err != nil {
		return "", err
	}

	slog.Info("generation submitted", "job_id", resp.JobID, "channel", req.ChannelName, "status", resp.Status)
	return resp.JobID, nil
}

// track hands jobID to the tracker, resetting a terminal state from a
// previous job first.
func (c *Controller) track(ctx context.Context, jobID string) error {
	pollCtx := context.WithoutCancel(ctx)

	err := c.tracker.Start(pollCtx, jobID)
	if errors.Is(err, lifecycle.ErrTerminal) {
		c.tracker.Reset()
		err = c.tracker.Start(pollCtx, jobID)
	}
	if err != nil {
		return fmt.Errorf("tracking job %s: %w", jobID, err)
	}
	return nil
}

// SendEmail emails the document of the job that just succeeded.
func (c *Controller) SendEmail(ctx context.Context, email string) (*models.EmailAck, error) {
	st := c.tracker.State()
	if st.Phase != lifecycle.PhaseSucceeded || st.JobID == "" {
		return nil, ErrNoCompletedJob
	}
	if strings.TrimSpace(email) == "" {
		return nil, &ValidationError{Field: "email", Message: "email is required"}
	}

	ack, err := c.client.SendEmail(ctx, models.SendEmailRequest{JobID: st.JobID, Email: email})
	if err != nil {
		slog.Warn("send email failed", "job_id", st.JobID, "error", err)
		return nil, &EmailError{JobID: st.JobID, Message: userMessage(err, MessageEmailFailed), Err: err}
	}
	if ack != nil && ack.Success != nil && !*ack.Success {
		msg := ack.Message
		if msg == "" {
			msg = MessageEmailFailed
		}
		return nil, &EmailError{JobID: st.JobID, Message: msg, Err: errors.New("backend rejected email")}
	}

	slog.Info("blog emailed", "job_id", st.JobID)
	return ack, nil
}

func validate(req models.GenerationRequest) error {
	if req.ChannelName == "" {
		return &ValidationError{Field: "channel_name", Message: "channel name is required"}
	}
	if req.VideoTitle == "" {
		return &ValidationError{Field: "video_title", Message: "video title is required"}
	}
	return nil
}
