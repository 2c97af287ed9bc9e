package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kiranshivaraju/ytblog/internal/blogapi"
	"github.com/kiranshivaraju/ytblog/pkg/models"
)

// MockClient satisfies blogapi.Client for testing. Nil funcs return zero values.
// Calls are recorded and safe for concurrent use.
type MockClient struct {
	CreateJobFunc   func(ctx context.Context, req models.GenerationRequest) (*models.JobResponse, error)
	FetchStatusFunc func(ctx context.Context, jobID string) (*models.Job, error)
	SendEmailFunc   func(ctx context.Context, req models.SendEmailRequest) (*models.EmailAck, error)
	HealthFunc      func(ctx context.Context) (*models.BackendHealth, error)

	mu          sync.Mutex
	createCalls []models.GenerationRequest
	statusCalls []string
	emailCalls  []models.SendEmailRequest
}

func (m *MockClient) CreateJob(ctx context.Context, req models.GenerationRequest) (*models.JobResponse, error) {
	m.mu.Lock()
	m.createCalls = append(m.createCalls, req)
	m.mu.Unlock()

	if m.CreateJobFunc != nil {
		return m.CreateJobFunc(ctx, req)
	}
	return &models.JobResponse{}, nil
}

func (m *MockClient) FetchStatus(ctx context.Context, jobID string) (*models.Job, error) {
	m.mu.Lock()
	m.statusCalls = append(m.statusCalls, jobID)
	m.mu.Unlock()

	if m.FetchStatusFunc != nil {
		return m.FetchStatusFunc(ctx, jobID)
	}
	return &models.Job{JobID: jobID, Status: models.JobStatusQueued}, nil
}

func (m *MockClient) SendEmail(ctx context.Context, req models.SendEmailRequest) (*models.EmailAck, error) {
	m.mu.Lock()
	m.emailCalls = append(m.emailCalls, req)
	m.mu.Unlock()

	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, req)
	}
	return &models.EmailAck{}, nil
}

func (m *MockClient) Health(ctx context.Context) (*models.BackendHealth, error) {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return &models.BackendHealth{Status: "healthy"}, nil
}

// CreateCalls returns a copy of every request passed to CreateJob.
func (m *MockClient) CreateCalls() []models.GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.GenerationRequest(nil), m.createCalls...)
}

// StatusCalls returns a copy of every job id passed to FetchStatus.
func (m *MockClient) StatusCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.statusCalls...)
}

// EmailCalls returns a copy of every request passed to SendEmail.
func (m *MockClient) EmailCalls() []models.SendEmailRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SendEmailRequest(nil), m.emailCalls...)
}

// NewMockClient returns a MockClient that accepts every job as "job-1" and
// reports it completed on the first poll.
func NewMockClient() *MockClient {
	return &MockClient{
		CreateJobFunc: func(_ context.Context, _ models.GenerationRequest) (*models.JobResponse, error) {
			return &models.JobResponse{JobID: "job-1", Status: models.JobStatusQueued, Message: "queued"}, nil
		},
		FetchStatusFunc: func(_ context.Context, jobID string) (*models.Job, error) {
			return Completed(jobID, SampleDocument()), nil
		},
	}
}

// NewFailingClient returns a MockClient whose every call fails with err.
func NewFailingClient(err error) *MockClient {
	return &MockClient{
		CreateJobFunc: func(_ context.Context, _ models.GenerationRequest) (*models.JobResponse, error) {
			return nil, err
		},
		FetchStatusFunc: func(_ context.Context, _ string) (*models.Job, error) {
			return nil, err
		},
		SendEmailFunc: func(_ context.Context, _ models.SendEmailRequest) (*models.EmailAck, error) {
			return nil, err
		},
		HealthFunc: func(_ context.Context) (*models.BackendHealth, error) {
			return nil, err
		},
	}
}

// Sequence returns a FetchStatusFunc that replays snapshots in order and keeps
// returning the last one once exhausted. A nil *models.Job entry replays as err.
func Sequence(err error, snapshots ...*models.Job) func(context.Context, string) (*models.Job, error) {
	var (
		mu sync.Mutex
		i  int
	)
	return func(_ context.Context, _ string) (*models.Job, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(snapshots) == 0 {
			return nil, err
		}
		s := snapshots[i]
		if i < len(snapshots)-1 {
			i++
		}
		if s == nil {
			return nil, err
		}
		cp := *s
		return &cp, nil
	}
}

// Snapshot builds a non-terminal status snapshot.
func Snapshot(jobID string, status models.JobStatus, progress int) *models.Job {
	return &models.Job{
		JobID:     jobID,
		Status:    status,
		Progress:  progress,
		CreatedAt: models.NewTimestamp(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)),
	}
}

// Completed builds a completed snapshot carrying doc.
func Completed(jobID string, doc *models.BlogDocument) *models.Job {
	j := Snapshot(jobID, models.JobStatusCompleted, 100)
	j.Result = doc
	return j
}

// Failed builds a failed snapshot. An empty msg leaves ErrorMessage unset.
func Failed(jobID, msg string) *models.Job {
	j := Snapshot(jobID, models.JobStatusFailed, 0)
	if msg != "" {
		j.ErrorMessage = &msg
	}
	return j
}

// SampleDocument returns a fixed document for assertions.
func SampleDocument() *models.BlogDocument {
	return &models.BlogDocument{
		Title:           "Intro to Testing",
		MarkdownContent: "# Intro to Testing\n\nWrite the test first.",
		Metadata:        map[string]any{"channel_title": "freeCodeCamp.org"},
		CreatedAt:       models.NewTimestamp(time.Date(2024, 3, 1, 10, 3, 0, 0, time.UTC)),
	}
}

// Compile-time check that MockClient implements Client.
var _ blogapi.Client = (*MockClient)(nil)
