package blogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/ytblog/pkg/models"
)

// RequestIDHeader carries a per-request uuid to the backend.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of a non-2xx body is read for the error message.
const maxErrorBody = 64 << 10

// Client is the interface for the blog generation backend.
// Implementations hold no state beyond their connection settings.
type Client interface {
	CreateJob(ctx context.Context, req models.GenerationRequest) (*models.JobResponse, error)
	FetchStatus(ctx context.Context, jobID string) (*models.Job, error)
	SendEmail(ctx context.Context, req models.SendEmailRequest) (*models.EmailAck, error)
	Health(ctx context.Context) (*models.BackendHealth, error)
}

// HTTPClient implements Client using the backend's JSON HTTP API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new backend client. baseURL includes the API prefix,
// e.g. http://localhost:8000/api/v1.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) CreateJob(ctx context.Context, req models.GenerationRequest) (*models.JobResponse, error) {
	var out models.JobResponse
	if err := c.do(ctx, "create job", http.MethodPost, "/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) FetchStatus(ctx context.Context, jobID string) (*models.Job, error) {
	var out models.Job
	if err := c.do(ctx, "fetch status", http.MethodGet, "/status/"+url.PathEscape(jobID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SendEmail(ctx context.Context, req models.SendEmailRequest) (*models.EmailAck, error) {
	var out models.EmailAck
	if err := c.do(ctx, "send email", http.MethodPost, "/send-email", req, &out, withEmptyBody()); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Health(ctx context.Context) (*models.BackendHealth, error) {
	var out models.BackendHealth
	if err := c.do(ctx, "health", http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type callOptions struct {
	emptyBodyOK bool
}

type callOption func(*callOptions)

// withEmptyBody accepts a 2xx response without a body.
func withEmptyBody() callOption {
	return func(o *callOptions) { o.emptyBodyOK = true }
}

// do issues one request and decodes a 2xx JSON body into out.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, in, out any, opts ...callOption) error {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	setHeaders(httpReq, in != nil)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    parseErrorMessage(raw),
			Err:        ErrUnexpectedStatus,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) && o.emptyBodyOK {
			return nil
		}
		if ctx.Err() != nil {
			return classifyError(op, ctx.Err())
		}
		return &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %v", ErrInvalidResponse, err),
		}
	}

	return nil
}

func setHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
